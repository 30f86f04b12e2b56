// internal/cropper/applier.go
package cropper

import (
	"fmt"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pagespec"
	"github.com/pagetrim/pagetrim/internal/pdfdoc"
)

// DefaultTargets is the box-kind list crops are written to when none is
// configured.
var DefaultTargets = []pdfdoc.BoxKind{pdfdoc.MediaBox, pdfdoc.CropBox}

// ApplyOptions controls how ApplyCrops writes boxes.
type ApplyOptions struct {
	// Targets are the box kinds receiving the crop box on selected
	// pages. Empty means DefaultTargets.
	Targets []pdfdoc.BoxKind
	// NoUndoSave skips stashing the backup box.
	NoUndoSave bool
	// AlreadyMarked means a previous run stashed the backups; they are
	// left alone so the oldest originals survive repeated crops.
	AlreadyMarked bool
}

// ApplyCrops writes the computed crop boxes onto the selected pages of
// doc. Every page first gets its pre-resolution media and crop boxes back
// (resolution set both to the full box so detection saw the right
// canvas); unselected pages are left that way. Each selected page then
// stashes intersect(media, crop) into its art box — the undo backup —
// unless that is disabled, and finally receives the crop box in every
// target kind.
func ApplyCrops(doc pdfdoc.Document, crops []geometry.Box, res *Resolution, selected pagespec.Selection, opts ApplyOptions) error {
	n := doc.PageCount()
	if len(crops) != n {
		return fmt.Errorf("crop list has %d entries for a %d-page document", len(crops), n)
	}
	targets := opts.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	for page := 0; page < n; page++ {
		orig := res.Originals[page]
		if orig.Media != nil {
			if err := doc.SetBox(page, pdfdoc.MediaBox, *orig.Media); err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
		}
		if orig.Crop != nil {
			if err := doc.SetBox(page, pdfdoc.CropBox, *orig.Crop); err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
		}
		if !selected.Contains(page) {
			continue
		}

		if !opts.NoUndoSave && !opts.AlreadyMarked {
			if backup := geometry.Intersect(orig.Media, orig.Crop); backup != nil {
				if err := doc.SetBox(page, pdfdoc.ArtBox, *backup); err != nil {
					return fmt.Errorf("page %d: %w", page, err)
				}
			}
		}

		for _, kind := range targets {
			if err := doc.SetBox(page, kind, crops[page]); err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
		}
	}
	return nil
}

// RestoreAll copies each page's backup (art) box into its media and crop
// boxes, for every page regardless of any selection. Pages with no
// resolvable art box are left untouched.
func RestoreAll(doc pdfdoc.Document) error {
	n := doc.PageCount()
	for page := 0; page < n; page++ {
		art, err := doc.Box(page, pdfdoc.ArtBox)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		if art == nil {
			continue
		}
		if err := doc.SetBox(page, pdfdoc.MediaBox, *art); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		if err := doc.SetBox(page, pdfdoc.CropBox, *art); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
	}
	return nil
}
