// internal/cropper/croplist.go

// Package cropper implements the page-box geometry engine: resolving the
// reference full-page box per page, computing final crop boxes from tight
// content bounds, applying them to a document, and undoing a previous
// application from the backup boxes.
package cropper

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pagespec"
)

// Params configures one crop-list computation. It is a plain value: the
// even/odd split derives local copies instead of toggling shared flags.
type Params struct {
	// PercentRetain is the percentage of each margin to keep, ordered
	// left, bottom, right, top. 0 crops flush to the tight box, 100
	// keeps the full page. Values outside [0,100] are permitted.
	PercentRetain [4]float64
	// AbsoluteOffset moves each crop edge further inward (positive) or
	// outward (negative) by points, same ordering.
	AbsoluteOffset [4]float64
	// Uniform crops every selected page to the same size.
	Uniform bool
	// EvenOdd computes a uniform size separately for even and odd pages.
	EvenOdd bool
	// SamePageSize first replaces every full-page box with the smallest
	// box containing all of them.
	SamePageSize bool
	// OrderStat, when set, ignores the n smallest per-margin deltas when
	// choosing the uniform crop. Implies uniform behavior.
	OrderStat *int
	// OrderPercent expresses OrderStat as a percentage of the selected
	// page count. Mutually exclusive with OrderStat.
	OrderPercent *float64
}

// uniformActive reports whether a uniform broadcast will run.
func (p Params) uniformActive() bool {
	return p.Uniform || p.OrderStat != nil || p.OrderPercent != nil
}

// Calculator computes final crop boxes from full-page and tight boxes.
type Calculator struct {
	log *zap.Logger
}

// NewCalculator returns a Calculator logging through log; a nil logger
// disables logging.
func NewCalculator(log *zap.Logger) *Calculator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Calculator{log: log}
}

// CropList computes one crop box per page. full and tight must have one
// entry per page; selected holds the page indices being cropped and is
// taken literally (an empty selection selects nothing — callers expand
// "all pages" before the call). Crops are computed for every page; the
// applier decides which ones take effect.
func (c *Calculator) CropList(full, tight []geometry.Box, selected pagespec.Selection, p Params) ([]geometry.Box, error) {
	if len(full) != len(tight) {
		return nil, fmt.Errorf("page box lists disagree: %d full boxes, %d tight boxes", len(full), len(tight))
	}
	n := len(full)

	// Same-page-size runs first, over the whole document, regardless of
	// selection or grouping.
	if p.SamePageSize {
		ext := geometry.Extent(full)
		same := make([]geometry.Box, n)
		for i := range same {
			same[i] = ext
		}
		full = same
	}

	if p.EvenOdd {
		return c.evenOddCropList(full, tight, selected, p)
	}

	deltas := c.deltaList(full, tight, p)

	if p.uniformActive() {
		c.broadcastUniform(deltas, selected, p)
	}

	crops := make([]geometry.Box, n)
	for i := 0; i < n; i++ {
		d := deltas[i]
		crops[i] = full[i].Inset(d[0], d[1], d[2], d[3])
	}
	return crops, nil
}

// deltaList computes the per-page, per-margin crop amounts: the absolute
// difference between full and tight, scaled by the retained percentage,
// shifted by the absolute offset. May be negative.
func (c *Calculator) deltaList(full, tight []geometry.Box, p Params) [][4]float64 {
	deltas := make([][4]float64, len(full))
	for i := range full {
		f, t := full[i], tight[i]
		d := [4]float64{
			math.Abs(t.Left - f.Left),
			math.Abs(t.Bottom - f.Bottom),
			math.Abs(t.Right - f.Right),
			math.Abs(t.Top - f.Top),
		}
		for m := 0; m < 4; m++ {
			d[m] = d[m]*(100.0-p.PercentRetain[m])/100.0 + p.AbsoluteOffset[m]
		}
		deltas[i] = d
	}
	return deltas
}

// broadcastUniform replaces every page's deltas with a single quadruple
// chosen per margin from the selected pages' sorted delta values.
func (c *Calculator) broadcastUniform(deltas [][4]float64, selected pagespec.Selection, p Params) {
	n := len(deltas)
	margins := [4][]float64{}
	count := 0
	for pg := 0; pg < n; pg++ {
		if !selected.Contains(pg) {
			continue
		}
		for m := 0; m < 4; m++ {
			margins[m] = append(margins[m], deltas[pg][m])
		}
		count++
	}
	if count == 0 {
		// Nothing selected: no common value to choose. Per-page deltas
		// stand; they are never applied anyway.
		return
	}

	idx := 0
	if p.OrderPercent != nil {
		pct := *p.OrderPercent
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		idx = int(math.Round(float64(count) * pct / 100.0))
	} else if p.OrderStat != nil {
		idx = *p.OrderStat
	}
	if idx < 0 || idx >= count {
		c.log.Warn("order statistic out of range, using closest value",
			zap.Int("index", idx),
			zap.Int("selected_pages", count))
		if idx >= count {
			idx = count - 1
		}
		if idx < 0 {
			idx = 0
		}
	}

	var chosen [4]float64
	for m := 0; m < 4; m++ {
		sort.Float64s(margins[m])
		chosen[m] = margins[m][idx]
	}
	for i := range deltas {
		deltas[i] = chosen
	}
}

// evenOddCropList computes crops for even and odd page indices
// independently, each group uniformly, and interleaves the results. When
// uniform was requested on top, one post-pass forces a common bottom and
// top across both groups; left and right stay per-group.
func (c *Calculator) evenOddCropList(full, tight []geometry.Box, selected pagespec.Selection, p Params) ([]geometry.Box, error) {
	n := len(full)
	even := make(pagespec.Selection)
	odd := make(pagespec.Selection)
	for pg := range selected {
		if !selected[pg] {
			continue
		}
		if pg%2 == 0 {
			even[pg] = true
		} else {
			odd[pg] = true
		}
	}

	sub := p
	sub.EvenOdd = false
	sub.Uniform = true

	evenCrops, err := c.CropList(full, tight, even, sub)
	if err != nil {
		return nil, err
	}
	oddCrops, err := c.CropList(full, tight, odd, sub)
	if err != nil {
		return nil, err
	}

	combined := make([]geometry.Box, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			combined[i] = evenCrops[i]
		} else {
			combined[i] = oddCrops[i]
		}
	}

	// Uniform on top of even/odd equalizes bottom and top across the
	// whole combined list, unselected pages included. This asymmetry
	// (left/right stay per-group) is deliberate.
	if p.Uniform && n > 0 {
		minBottom, maxTop := combined[0].Bottom, combined[0].Top
		for _, b := range combined[1:] {
			minBottom = math.Min(minBottom, b.Bottom)
			maxTop = math.Max(maxTop, b.Top)
		}
		for i := range combined {
			combined[i].Bottom = minBottom
			combined[i].Top = maxTop
		}
	}
	return combined, nil
}
