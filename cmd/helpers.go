// -- cmd/helpers.go --
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pagetrim/pagetrim/internal/detect"
	"github.com/pagetrim/pagetrim/internal/pagespec"
	"github.com/pagetrim/pagetrim/internal/pdfdoc"
)

// deriveOutputPath builds the default output name for inputPath: suffix
// mode turns dir/base.pdf into dir/base_<word>.pdf, prefix mode into
// dir/<word>_base.pdf.
func deriveOutputPath(inputPath, word, sep string, usePrefix bool) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var name string
	if usePrefix {
		name = word + sep + stem + ext
	} else {
		name = stem + sep + word + ext
	}
	return filepath.Join(dir, name)
}

// parseSelection turns the 1-based page-range expression into a 0-based
// selection clamped to the document. An empty expression selects all pages.
func parseSelection(expr string, pageCount int) (pagespec.Selection, error) {
	if strings.TrimSpace(expr) == "" {
		return pagespec.All(pageCount), nil
	}
	sel, err := pagespec.Parse(expr)
	if err != nil {
		return nil, err
	}
	return sel.ClampTo(pageCount), nil
}

// fullPageSources resolves the configured full-page box sources. The bbox
// device reports extents relative to the crop box, so under the bbox
// engine only one source is honored and the default becomes {crop} instead
// of {media, crop}.
func fullPageSources(engine string, configured []string, log *zap.Logger) ([]pdfdoc.BoxKind, error) {
	bbox := engine == "" || engine == detect.EngineBBox
	if bbox && len(configured) > 1 {
		log.Warn("Only one full-page box source can be used with the bbox engine, ignoring all but the first.",
			zap.Strings("configured", configured))
		configured = configured[:1]
	}
	if len(configured) == 0 {
		if bbox {
			configured = []string{"c"}
		} else {
			configured = []string{"m", "c"}
		}
	}
	return pdfdoc.ParseBoxKinds(configured)
}

// queryModifyOriginal runs the interactive prompt deciding whether the
// cropped output replaces the original file.
func queryModifyOriginal(in io.Reader, out io.Writer) (bool, error) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Modify the original file? [yn] ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, fmt.Errorf("reading response: %w", err)
			}
			return false, fmt.Errorf("no response received")
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "y", "Y":
			fmt.Fprintln(out, "Modifying the original file.")
			return true, nil
		case "n", "N":
			fmt.Fprintln(out, "Not modifying the original file.")
			return false, nil
		default:
			fmt.Fprintln(out, "Response must be in the set {y,Y,n,N}, none recognized.")
		}
	}
}

// swapOriginal archives inputPath under archivePath and moves outputPath
// into the original's place. When protect is set and the archive name is
// taken, the swap is skipped with a warning and the files stay as if the
// modify-original option were never set.
func swapOriginal(log *zap.Logger, inputPath, outputPath, archivePath string, protect bool) error {
	if _, err := os.Stat(archivePath); err == nil {
		if protect {
			log.Warn("A noclobber option is set; refusing to overwrite the archive file. Files are as if the modify-original option were not set.",
				zap.String("archive", archivePath))
			return nil
		}
		if err := os.Remove(archivePath); err != nil {
			return fmt.Errorf("removing old archive %s: %w", archivePath, err)
		}
	}

	if err := os.Rename(inputPath, archivePath); err != nil {
		return fmt.Errorf("archiving original file: %w", err)
	}
	if err := os.Rename(outputPath, inputPath); err != nil {
		return fmt.Errorf("moving cropped file into place: %w", err)
	}

	log.Info("Replaced the original file.",
		zap.String("original", inputPath),
		zap.String("archive", archivePath))
	return nil
}

// runPreview launches the configured viewer on the output file and waits
// for it to exit. The command string is split on whitespace and the output
// path is appended as the final argument.
func runPreview(ctx context.Context, command, outputPath string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}

	args := append(fields[1:], outputPath)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("preview command failed: %w", err)
	}
	return nil
}
