// internal/detect/provider.go

// Package detect supplies one tight content bounding box per PDF page by
// shelling out to Ghostscript. Two engines exist: the bbox device, which
// reports hi-res bounding boxes for the whole file in a single invocation,
// and a render engine that rasterizes each page to grayscale and scans the
// pixels for the non-white extent. Both operate on a file whose page boxes
// have already been rewritten to the full-page boxes, so reported
// coordinates line up with the crop calculation downstream.
package detect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pagespec"
)

// ErrPageCountMismatch reports that Ghostscript returned a different number
// of bounding boxes than the document has pages.
var ErrPageCountMismatch = errors.New("bounding box count does not match page count")

// Engine names accepted by NewProvider.
const (
	EngineBBox   = "bbox"
	EngineRender = "render"
)

// Render output formats accepted by the render engine.
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
)

// Provider computes tight content boxes for the PDF at path. The returned
// slice always has one entry per page; entries for unselected pages are
// placeholders and callers must not rely on them. Implementations may run
// subprocesses and must honor ctx cancellation.
type Provider interface {
	Detect(ctx context.Context, path string, pageCount int, full []geometry.Box, selected pagespec.Selection) ([]geometry.Box, error)
}

// Options configure the Ghostscript engines. The zero value is usable;
// unset fields fall back to the defaults below.
type Options struct {
	// GhostscriptPath is the gs binary name or path. Default "gs".
	GhostscriptPath string
	// Timeout caps each Ghostscript invocation. Default 2m.
	Timeout time.Duration
	// DPI is the render engine's rasterization resolution. Default 150.
	DPI int
	// Threshold is the 0-255 whiteness cutoff for the render engine;
	// pixels strictly above it count as background. Default 232.
	Threshold int
	// Workers bounds concurrent page renders. Default 4.
	Workers int
	// RenderFormat selects the render engine's intermediate image format,
	// FormatPNG or FormatTIFF. Default FormatPNG.
	RenderFormat string
}

func (o Options) withDefaults() Options {
	if o.GhostscriptPath == "" {
		o.GhostscriptPath = "gs"
	}
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.DPI <= 0 {
		o.DPI = 150
	}
	if o.Threshold <= 0 {
		o.Threshold = 232
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.RenderFormat == "" {
		o.RenderFormat = FormatPNG
	}
	return o
}

// NewProvider selects a detection engine by name. An empty name selects the
// bbox engine.
func NewProvider(engine string, opts Options, log *zap.Logger) (Provider, error) {
	switch engine {
	case "", EngineBBox:
		return NewBBoxEngine(opts, log), nil
	case EngineRender:
		return NewRenderEngine(opts, log), nil
	default:
		return nil, fmt.Errorf("unknown detection engine %q", engine)
	}
}
