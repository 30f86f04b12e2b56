// internal/reporting/report.go

// Package reporting renders a machine-readable account of a crop run: the
// full, tight, and final crop box of every page plus the per-margin amounts
// trimmed. The report is JSON so downstream tooling can diff runs.
package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/json-iterator/go"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pagespec"
)

// PageEntry describes one page of a crop run. Delta holds the points
// trimmed from each margin in (left, bottom, right, top) order; negative
// values mean the margin grew.
type PageEntry struct {
	Page     int          `json:"page"` // 1-based, matching viewer displays
	Selected bool         `json:"selected"`
	Full     geometry.Box `json:"full"`
	Tight    geometry.Box `json:"tight"`
	Crop     geometry.Box `json:"crop"`
	Delta    [4]float64   `json:"delta"`
}

// Report is the top-level crop run record.
type Report struct {
	Input       string      `json:"input"`
	Output      string      `json:"output"`
	Engine      string      `json:"engine"`
	GeneratedAt time.Time   `json:"generated_at"`
	Pages       []PageEntry `json:"pages"`
}

// NewReport assembles a report from the three per-page box lists of a crop
// run. The lists must be the same length; tight entries for unselected
// pages are placeholders and recorded as-is.
func NewReport(input, output, engine string, full, tight, crops []geometry.Box, selected pagespec.Selection) (*Report, error) {
	if len(tight) != len(full) || len(crops) != len(full) {
		return nil, fmt.Errorf("page box lists disagree: %d full, %d tight, %d crop", len(full), len(tight), len(crops))
	}

	pages := make([]PageEntry, len(full))
	for i := range full {
		pages[i] = PageEntry{
			Page:     i + 1,
			Selected: selected.Contains(i),
			Full:     full[i],
			Tight:    tight[i],
			Crop:     crops[i],
			Delta: [4]float64{
				crops[i].Left - full[i].Left,
				crops[i].Bottom - full[i].Bottom,
				full[i].Right - crops[i].Right,
				full[i].Top - crops[i].Top,
			},
		}
	}

	return &Report{
		Input:       input,
		Output:      output,
		Engine:      engine,
		GeneratedAt: time.Now().UTC(),
		Pages:       pages,
	}, nil
}

// Write renders the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encoding crop report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path, truncating any existing file.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating crop report: %w", err)
	}

	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing crop report: %w", err)
	}
	return nil
}
