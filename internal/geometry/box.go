// internal/geometry/box.go
package geometry

import (
	"fmt"
	"math"
)

// Box is an axis-aligned rectangle in PDF user space, measured in points
// with the origin at the lower-left corner of the page. Coordinates are
// ordered (left, bottom, right, top).
//
// A Box is a value: every transform returns a new Box and never mutates
// its receiver or arguments. A well-formed box satisfies Left <= Right and
// Bottom <= Top, but ill-formed boxes are legal values — extreme margin
// offsets can legitimately produce them, and callers decide what to do.
type Box struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

// New constructs a Box from the four lbrt coordinates.
func New(left, bottom, right, top float64) Box {
	return Box{Left: left, Bottom: bottom, Right: right, Top: top}
}

// Width returns the horizontal extent. Negative for ill-formed boxes.
func (b Box) Width() float64 { return b.Right - b.Left }

// Height returns the vertical extent. Negative for ill-formed boxes.
func (b Box) Height() float64 { return b.Top - b.Bottom }

// IsWellFormed reports whether the box has non-negative width and height.
func (b Box) IsWellFormed() bool {
	return b.Left <= b.Right && b.Bottom <= b.Top
}

// Equals reports whether every coordinate of b and o agrees within tol.
func (b Box) Equals(o Box, tol float64) bool {
	return math.Abs(b.Left-o.Left) <= tol &&
		math.Abs(b.Bottom-o.Bottom) <= tol &&
		math.Abs(b.Right-o.Right) <= tol &&
		math.Abs(b.Top-o.Top) <= tol
}

// Inset returns a copy of b with each side moved inward by the given
// amount. Negative amounts move a side outward instead.
func (b Box) Inset(left, bottom, right, top float64) Box {
	return Box{
		Left:   b.Left + left,
		Bottom: b.Bottom + bottom,
		Right:  b.Right - right,
		Top:    b.Top - top,
	}
}

func (b Box) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", b.Left, b.Bottom, b.Right, b.Top)
}

// Clone returns a copy of b, preserving nil.
func (b *Box) Clone() *Box {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Intersect returns the overlap of a and b as a new Box. A nil operand is
// no constraint, so the other operand is returned (copied); two nil
// operands yield nil. Non-overlapping operands produce an ill-formed
// result rather than an error.
func Intersect(a, b *Box) *Box {
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}
	return &Box{
		Left:   math.Max(a.Left, b.Left),
		Bottom: math.Max(a.Bottom, b.Bottom),
		Right:  math.Min(a.Right, b.Right),
		Top:    math.Min(a.Top, b.Top),
	}
}

// Extent returns the smallest box covering every box in the list: the
// minimum left/bottom and maximum right/top over all entries. The extent
// of an empty list is the zero Box.
func Extent(boxes []Box) Box {
	if len(boxes) == 0 {
		return Box{}
	}
	ext := boxes[0]
	for _, b := range boxes[1:] {
		ext.Left = math.Min(ext.Left, b.Left)
		ext.Bottom = math.Min(ext.Bottom, b.Bottom)
		ext.Right = math.Max(ext.Right, b.Right)
		ext.Top = math.Max(ext.Top, b.Top)
	}
	return ext
}
