// internal/detect/ghostscript.go
package detect

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pagespec"
)

// The bbox device prints one of these to stderr per page.
var hiResBoundingBoxRegex = regexp.MustCompile(`^%%HiResBoundingBox:\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s*$`)

// BBoxEngine runs Ghostscript's bbox device once over the whole file and
// parses the per-page %%HiResBoundingBox lines from its output.
type BBoxEngine struct {
	opts Options
	log  *zap.Logger
}

// NewBBoxEngine creates the bbox-device engine. A nil logger disables logging.
func NewBBoxEngine(opts Options, log *zap.Logger) *BBoxEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &BBoxEngine{opts: opts.withDefaults(), log: log}
}

// Detect implements Provider. The selection is ignored: one invocation
// covers every page, and unwanted entries are discarded downstream.
func (e *BBoxEngine) Detect(ctx context.Context, path string, pageCount int, full []geometry.Box, selected pagespec.Selection) ([]geometry.Box, error) {
	if len(full) != pageCount {
		return nil, fmt.Errorf("full-page box list has %d entries for a %d-page document", len(full), pageCount)
	}

	e.log.Debug("Running Ghostscript bbox analysis.",
		zap.String("path", path),
		zap.Int("pages", pageCount))

	args := []string{"-dSAFER", "-dNOPAUSE", "-dBATCH", "-sDEVICE=bbox", path}
	output, err := runGhostscript(ctx, e.opts, args)
	if err != nil {
		return nil, err
	}
	return bboxListFromOutput(output, pageCount)
}

// bboxListFromOutput extracts the hi-res boxes from a bbox device run and
// checks that every page produced one.
func bboxListFromOutput(output []byte, pageCount int) ([]geometry.Box, error) {
	var boxes []geometry.Box

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		matches := hiResBoundingBoxRegex.FindStringSubmatch(scanner.Text())
		if len(matches) != 5 {
			continue
		}
		var vals [4]float64
		ok := true
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(matches[i+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		boxes = append(boxes, geometry.New(vals[0], vals[1], vals[2], vals[3]))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning ghostscript output: %w", err)
	}

	if len(boxes) != pageCount {
		return nil, fmt.Errorf("%w: ghostscript reported %d boxes for %d pages", ErrPageCountMismatch, len(boxes), pageCount)
	}
	return boxes, nil
}

// Repair rewrites the PDF at inPath through Ghostscript's pdfwrite device,
// which reconstructs damaged cross-reference tables and similar corruption.
// It returns the path of the repaired copy in the system temp directory;
// the caller owns the file.
func Repair(ctx context.Context, opts Options, inPath string) (string, error) {
	opts = opts.withDefaults()
	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("pagetrim-repair-%s.pdf", uuid.New().String()))

	args := []string{
		"-dSAFER", "-dNOPAUSE", "-dBATCH",
		"-sDEVICE=pdfwrite",
		"-sOutputFile=" + outPath,
		inPath,
	}
	if _, err := runGhostscript(ctx, opts, args); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("repairing %s: %w", inPath, err)
	}
	return outPath, nil
}

// runGhostscript executes gs with the given arguments under the configured
// timeout and returns its combined output. The bbox device reports on
// stderr, so stdout and stderr are captured together.
func runGhostscript(ctx context.Context, opts Options, args []string) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, opts.GhostscriptPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ghostscript failed: %w\nOutput: %s", err, string(output))
	}
	return output, nil
}
