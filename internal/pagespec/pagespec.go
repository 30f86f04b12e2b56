// internal/pagespec/pagespec.go

// Package pagespec parses user-facing page-range expressions into page
// selections. Expressions are 1-based and comma separated: "3" selects a
// single page, "2-14" an inclusive range, "1,3,5-9" a combination. The
// resulting selection is 0-based.
package pagespec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Selection is a set of 0-based page indices chosen for cropping.
type Selection map[int]bool

// Parse converts a 1-based page-range expression into a Selection. Any
// piece that is not an integer or an integer pair fails the whole parse.
// A reversed range ("9-5") is empty, not an error. Indices outside a
// particular document are dropped later by ClampTo, not here.
func Parse(expr string) (Selection, error) {
	sel := make(Selection)
	for _, piece := range strings.Split(expr, ",") {
		piece = strings.TrimSpace(piece)
		if !strings.Contains(piece, "-") {
			n, err := strconv.Atoi(piece)
			if err != nil {
				return nil, fmt.Errorf("invalid page number %q: %w", piece, err)
			}
			sel[n-1] = true
			continue
		}

		bounds := strings.Split(piece, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid page range %q", piece)
		}
		first, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q: %w", piece, err)
		}
		last, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q: %w", piece, err)
		}
		for n := first; n <= last; n++ {
			sel[n-1] = true
		}
	}
	return sel, nil
}

// All returns a Selection covering every page of an n-page document.
func All(n int) Selection {
	sel := make(Selection, n)
	for i := 0; i < n; i++ {
		sel[i] = true
	}
	return sel
}

// ClampTo returns a new Selection holding only the indices of s that fall
// inside [0, pageCount).
func (s Selection) ClampTo(pageCount int) Selection {
	clamped := make(Selection, len(s))
	for i := range s {
		if i >= 0 && i < pageCount {
			clamped[i] = true
		}
	}
	return clamped
}

// Contains reports whether page index i is selected.
func (s Selection) Contains(i int) bool { return s[i] }

// Count returns the number of selected pages.
func (s Selection) Count() int { return len(s) }

// Sorted returns the selected indices in ascending order.
func (s Selection) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
