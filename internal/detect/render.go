// internal/detect/render.go
package detect

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	// Decoders for the two render formats, registered for image.Decode.
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pagespec"
)

// RenderEngine rasterizes each selected page to a grayscale image and scans
// the pixels for the non-white extent. Pages render concurrently, bounded
// by Options.Workers.
type RenderEngine struct {
	opts Options
	log  *zap.Logger
}

// NewRenderEngine creates the render-and-scan engine. A nil logger disables
// logging.
func NewRenderEngine(opts Options, log *zap.Logger) *RenderEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &RenderEngine{opts: opts.withDefaults(), log: log}
}

// Detect implements Provider. Unselected pages are never rendered; their
// entries carry the full-page box as a placeholder.
func (e *RenderEngine) Detect(ctx context.Context, path string, pageCount int, full []geometry.Box, selected pagespec.Selection) ([]geometry.Box, error) {
	if len(full) != pageCount {
		return nil, fmt.Errorf("full-page box list has %d entries for a %d-page document", len(full), pageCount)
	}

	e.log.Debug("Rendering pages for bounding box analysis.",
		zap.String("path", path),
		zap.Int("pages", pageCount),
		zap.Int("dpi", e.opts.DPI),
		zap.Int("workers", e.opts.Workers))

	out := make([]geometry.Box, pageCount)
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for page := 0; page < pageCount; page++ {
		if !selected.Contains(page) {
			out[page] = full[page]
			continue
		}

		page := page
		g.Go(func() error {
			box, err := e.detectPage(groupCtx, path, page, full[page])
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			out[page] = box
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// detectPage renders one page to a temp image, decodes it, and maps the
// non-white pixel extent back into the page's coordinate space.
func (e *RenderEngine) detectPage(ctx context.Context, path string, page int, full geometry.Box) (geometry.Box, error) {
	device, ext := "pnggray", "png"
	if e.opts.RenderFormat == FormatTIFF {
		device, ext = "tiffgray", "tif"
	}
	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("pagetrim-render-%s.%s", uuid.New().String(), ext))
	defer os.Remove(outPath)

	pageNum := page + 1 // Ghostscript pages are 1-based.
	args := []string{
		"-dSAFER", "-dNOPAUSE", "-dBATCH",
		"-sDEVICE=" + device,
		fmt.Sprintf("-r%d", e.opts.DPI),
		fmt.Sprintf("-dFirstPage=%d", pageNum),
		fmt.Sprintf("-dLastPage=%d", pageNum),
		"-sOutputFile=" + outPath,
		path,
	}
	if _, err := runGhostscript(ctx, e.opts, args); err != nil {
		return geometry.Box{}, err
	}

	f, err := os.Open(outPath)
	if err != nil {
		return geometry.Box{}, fmt.Errorf("opening rendered page: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return geometry.Box{}, fmt.Errorf("decoding rendered page: %w", err)
	}

	return contentBounds(img, e.opts.Threshold, e.opts.DPI, full), nil
}

// contentBounds scans img for pixels at or below the whiteness threshold
// and converts their extent to points inside full. The raster origin is
// top-left while PDF boxes grow from bottom-left, so the vertical axis
// flips. An entirely white page yields full unchanged: nothing to crop.
func contentBounds(img image.Image, threshold, dpi int, full geometry.Box) geometry.Box {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1
	cutoff := uint8(threshold)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if gray.Y > cutoff {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX {
		return full
	}

	// Normalize to the raster origin so subimages behave.
	minX -= bounds.Min.X
	maxX -= bounds.Min.X
	minY -= bounds.Min.Y
	maxY -= bounds.Min.Y

	scale := 72.0 / float64(dpi)
	return geometry.New(
		full.Left+float64(minX)*scale,
		full.Top-float64(maxY+1)*scale,
		full.Left+float64(maxX+1)*scale,
		full.Top-float64(minY)*scale,
	)
}
