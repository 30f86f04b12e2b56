// internal/pdfdoc/document.go
package pdfdoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pagetrim/pagetrim/internal/geometry"
)

// ErrNoSuchPage is returned for page indices outside [0, PageCount).
var ErrNoSuchPage = errors.New("no such page")

// BoxKind names one of the five standard page boundary boxes.
type BoxKind int

const (
	MediaBox BoxKind = iota
	CropBox
	TrimBox
	ArtBox
	BleedBox
)

// Key returns the page dictionary key for the kind, e.g. "MediaBox".
func (k BoxKind) Key() string {
	switch k {
	case MediaBox:
		return "MediaBox"
	case CropBox:
		return "CropBox"
	case TrimBox:
		return "TrimBox"
	case ArtBox:
		return "ArtBox"
	case BleedBox:
		return "BleedBox"
	}
	return fmt.Sprintf("BoxKind(%d)", int(k))
}

// String returns the short lowercase name used in configuration, e.g. "media".
func (k BoxKind) String() string {
	switch k {
	case MediaBox:
		return "media"
	case CropBox:
		return "crop"
	case TrimBox:
		return "trim"
	case ArtBox:
		return "art"
	case BleedBox:
		return "bleed"
	}
	return fmt.Sprintf("BoxKind(%d)", int(k))
}

// ParseBoxKind maps a box name to its BoxKind. Both the single-letter and
// the full lowercase forms are accepted ("m" or "media").
func ParseBoxKind(s string) (BoxKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "media":
		return MediaBox, nil
	case "c", "crop":
		return CropBox, nil
	case "t", "trim":
		return TrimBox, nil
	case "a", "art":
		return ArtBox, nil
	case "b", "bleed":
		return BleedBox, nil
	}
	return 0, fmt.Errorf("unknown box kind %q", s)
}

// ParseBoxKinds maps a list of box names, preserving order.
func ParseBoxKinds(names []string) ([]BoxKind, error) {
	kinds := make([]BoxKind, 0, len(names))
	for _, n := range names {
		k, err := ParseBoxKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Document is the page-box and metadata surface the crop engine works
// against. Implementations return effective boxes: when a page has no
// entry for the requested kind, the standard fallbacks apply (crop falls
// back to media; trim, art and bleed fall back to crop, then media). A
// document with no media box anywhere yields (nil, nil), not an error.
//
// Boxes returned from Box are copies; mutating them never touches the
// document. Page indices are 0-based.
type Document interface {
	PageCount() int
	Box(page int, kind BoxKind) (*geometry.Box, error)
	SetBox(page int, kind BoxKind, box geometry.Box) error
	Producer() (string, error)
	SetProducer(producer string) error
}

// PageBoxes holds the raw box entries of a single page. A nil field means
// the page dictionary has no entry of that kind.
type PageBoxes struct {
	Media *geometry.Box
	Crop  *geometry.Box
	Trim  *geometry.Box
	Art   *geometry.Box
	Bleed *geometry.Box
}

func (p *PageBoxes) raw(kind BoxKind) *geometry.Box {
	switch kind {
	case MediaBox:
		return p.Media
	case CropBox:
		return p.Crop
	case TrimBox:
		return p.Trim
	case ArtBox:
		return p.Art
	case BleedBox:
		return p.Bleed
	}
	return nil
}

func (p *PageBoxes) setRaw(kind BoxKind, b *geometry.Box) {
	switch kind {
	case MediaBox:
		p.Media = b
	case CropBox:
		p.Crop = b
	case TrimBox:
		p.Trim = b
	case ArtBox:
		p.Art = b
	case BleedBox:
		p.Bleed = b
	}
}

// fallbackKind returns the kind consulted next when kind has no entry,
// and whether such a fallback exists.
func fallbackKind(kind BoxKind) (BoxKind, bool) {
	switch kind {
	case CropBox:
		return MediaBox, true
	case TrimBox, ArtBox, BleedBox:
		return CropBox, true
	}
	return 0, false
}

// MemDoc is an in-memory Document used by tests and as the seam the crop
// engine is verified through.
type MemDoc struct {
	pages    []PageBoxes
	producer string
}

// NewMemDoc builds a document with one entry per page. The given boxes are
// copied, so callers may reuse them.
func NewMemDoc(pages ...PageBoxes) *MemDoc {
	d := &MemDoc{pages: make([]PageBoxes, len(pages))}
	for i, p := range pages {
		d.pages[i] = PageBoxes{
			Media: p.Media.Clone(),
			Crop:  p.Crop.Clone(),
			Trim:  p.Trim.Clone(),
			Art:   p.Art.Clone(),
			Bleed: p.Bleed.Clone(),
		}
	}
	return d
}

// NewMemDocUniform builds an n-page document whose every page has the
// given media box and nothing else.
func NewMemDocUniform(n int, media geometry.Box) *MemDoc {
	pages := make([]PageBoxes, n)
	for i := range pages {
		pages[i] = PageBoxes{Media: &media}
	}
	return NewMemDoc(pages...)
}

func (d *MemDoc) PageCount() int { return len(d.pages) }

func (d *MemDoc) Box(page int, kind BoxKind) (*geometry.Box, error) {
	if page < 0 || page >= len(d.pages) {
		return nil, fmt.Errorf("page %d: %w", page, ErrNoSuchPage)
	}
	k := kind
	for {
		if b := d.pages[page].raw(k); b != nil {
			return b.Clone(), nil
		}
		next, ok := fallbackKind(k)
		if !ok {
			return nil, nil
		}
		k = next
	}
}

func (d *MemDoc) SetBox(page int, kind BoxKind, box geometry.Box) error {
	if page < 0 || page >= len(d.pages) {
		return fmt.Errorf("page %d: %w", page, ErrNoSuchPage)
	}
	d.pages[page].setRaw(kind, &box)
	return nil
}

func (d *MemDoc) Producer() (string, error) { return d.producer, nil }

func (d *MemDoc) SetProducer(producer string) error {
	d.producer = producer
	return nil
}
