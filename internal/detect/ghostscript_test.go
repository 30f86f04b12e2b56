// internal/detect/ghostscript_test.go
package detect

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagetrim/pagetrim/internal/geometry"
)

const twoPageBBoxOutput = `GPL Ghostscript 10.02.1 (2023-11-01)
Copyright (C) 2023 Artifex Software, Inc.  All rights reserved.
This software is supplied under the GNU AGPLv3 and comes with NO WARRANTY:
see the file COPYING for details.
Processing pages 1 through 2.
Page 1
%%BoundingBox: 54 72 558 720
%%HiResBoundingBox: 54.161987 72.179993 557.855957 719.839966
Page 2
%%BoundingBox: 54 72 541 700
%%HiResBoundingBox: 54.000000 72.000000 540.249985 699.999977
`

func TestBBoxListFromOutput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		output    string
		pageCount int
		want      []geometry.Box
		wantErr   error
	}{
		{
			name:      "two_pages_hires_values",
			output:    twoPageBBoxOutput,
			pageCount: 2,
			want: []geometry.Box{
				geometry.New(54.161987, 72.179993, 557.855957, 719.839966),
				geometry.New(54, 72, 540.249985, 699.999977),
			},
		},
		{
			name:      "negative_origin",
			output:    "Page 1\n%%HiResBoundingBox: -3.500000 0.000000 615.500000 792.000000\n",
			pageCount: 1,
			want:      []geometry.Box{geometry.New(-3.5, 0, 615.5, 792)},
		},
		{
			name:      "empty_page_reports_zero_box",
			output:    "Page 1\n%%BoundingBox: 0 0 0 0\n%%HiResBoundingBox: 0.000000 0.000000 0.000000 0.000000\n",
			pageCount: 1,
			want:      []geometry.Box{geometry.New(0, 0, 0, 0)},
		},
		{
			name:      "missing_page_is_fatal",
			output:    "Page 1\n%%HiResBoundingBox: 10.0 10.0 20.0 20.0\n",
			pageCount: 2,
			wantErr:   ErrPageCountMismatch,
		},
		{
			name:      "extra_page_is_fatal",
			output:    twoPageBBoxOutput,
			pageCount: 1,
			wantErr:   ErrPageCountMismatch,
		},
		{
			name:      "no_boxes_at_all",
			output:    "Error: /undefined in obj\n",
			pageCount: 1,
			wantErr:   ErrPageCountMismatch,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			boxes, err := bboxListFromOutput([]byte(tc.output), tc.pageCount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, boxes)
		})
	}
}

func TestBBoxDetectLengthMismatch(t *testing.T) {
	t.Parallel()

	engine := NewBBoxEngine(Options{}, nil)
	_, err := engine.Detect(context.Background(), "ignored.pdf", 2, []geometry.Box{geometry.New(0, 0, 1, 1)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full-page box list")
}

func TestBBoxDetectMissingBinary(t *testing.T) {
	t.Parallel()

	opts := Options{GhostscriptPath: filepath.Join(t.TempDir(), "no-such-gs")}
	engine := NewBBoxEngine(opts, nil)

	full := []geometry.Box{geometry.New(0, 0, 612, 792)}
	_, err := engine.Detect(context.Background(), "ignored.pdf", 1, full, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghostscript failed")
}

func TestRepairMissingBinary(t *testing.T) {
	t.Parallel()

	opts := Options{GhostscriptPath: filepath.Join(t.TempDir(), "no-such-gs")}
	_, err := Repair(context.Background(), opts, "input.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repairing input.pdf")
}
