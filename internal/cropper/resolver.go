// internal/cropper/resolver.go
package cropper

import (
	"errors"
	"fmt"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pdfdoc"
)

// ErrNoFullBox means a page had none of the requested source boxes, so no
// crop baseline exists.
var ErrNoFullBox = errors.New("no full-page box could be resolved")

// OriginalBoxes holds a page's effective media and crop boxes as they were
// before resolution touched the page.
type OriginalBoxes struct {
	Media *geometry.Box
	Crop  *geometry.Box
}

// Resolution is the output of full-page box resolution: the reference box
// per page, plus the saved pre-resolution boxes the applier restores from.
type Resolution struct {
	Full      []geometry.Box
	Originals map[int]OriginalBoxes
}

// DefaultFullPageSources is the source-box list used when none is
// configured: the media box intersected with the crop box, so repeated
// crops of the same file behave predictably.
var DefaultFullPageSources = []pdfdoc.BoxKind{pdfdoc.MediaBox, pdfdoc.CropBox}

// ResolveFullPages derives each page's full-page box by intersecting the
// named source boxes in order, records the page's prior media and crop
// boxes in the side table, and sets the page's media and crop boxes to
// the resolved value. Call it once per document.
func ResolveFullPages(doc pdfdoc.Document, sources []pdfdoc.BoxKind) (*Resolution, error) {
	if len(sources) == 0 {
		sources = DefaultFullPageSources
	}
	n := doc.PageCount()
	res := &Resolution{
		Full:      make([]geometry.Box, n),
		Originals: make(map[int]OriginalBoxes, n),
	}
	for page := 0; page < n; page++ {
		media, err := doc.Box(page, pdfdoc.MediaBox)
		if err != nil {
			return nil, fmt.Errorf("resolving page %d: %w", page, err)
		}
		crop, err := doc.Box(page, pdfdoc.CropBox)
		if err != nil {
			return nil, fmt.Errorf("resolving page %d: %w", page, err)
		}
		res.Originals[page] = OriginalBoxes{Media: media, Crop: crop}

		var full *geometry.Box
		for i, kind := range sources {
			b, err := doc.Box(page, kind)
			if err != nil {
				return nil, fmt.Errorf("resolving page %d %s: %w", page, kind, err)
			}
			if i == 0 {
				full = b
			} else {
				full = geometry.Intersect(full, b)
			}
		}
		if full == nil {
			return nil, fmt.Errorf("page %d: %w", page, ErrNoFullBox)
		}

		if err := doc.SetBox(page, pdfdoc.MediaBox, *full); err != nil {
			return nil, fmt.Errorf("resolving page %d: %w", page, err)
		}
		if err := doc.SetBox(page, pdfdoc.CropBox, *full); err != nil {
			return nil, fmt.Errorf("resolving page %d: %w", page, err)
		}
		res.Full[page] = *full
	}
	return res, nil
}
