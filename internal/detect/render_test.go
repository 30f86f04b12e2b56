// internal/detect/render_test.go
package detect

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pagetrim/pagetrim/internal/geometry"
	"github.com/pagetrim/pagetrim/internal/pagespec"
)

func grayImage(rect image.Rectangle, v uint8) *image.Gray {
	img := image.NewGray(rect)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// paintRect darkens the inclusive pixel rectangle [x0,x1]x[y0,y1].
func paintRect(img *image.Gray, x0, y0, x1, y1 int, v uint8) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

func TestContentBounds(t *testing.T) {
	t.Parallel()

	fullLetter := geometry.New(0, 0, 100, 200)

	testCases := []struct {
		name      string
		img       func() *image.Gray
		threshold int
		dpi       int
		full      geometry.Box
		want      geometry.Box
	}{
		{
			name: "centered_content",
			img: func() *image.Gray {
				img := grayImage(image.Rect(0, 0, 100, 200), 0xFF)
				paintRect(img, 10, 20, 19, 39, 0)
				return img
			},
			threshold: 232,
			dpi:       72,
			full:      fullLetter,
			want:      geometry.New(10, 160, 20, 180),
		},
		{
			name:      "all_white_yields_full_box",
			img:       func() *image.Gray { return grayImage(image.Rect(0, 0, 100, 200), 0xFF) },
			threshold: 232,
			dpi:       72,
			full:      fullLetter,
			want:      fullLetter,
		},
		{
			name: "single_pixel",
			img: func() *image.Gray {
				img := grayImage(image.Rect(0, 0, 100, 200), 0xFF)
				paintRect(img, 5, 7, 5, 7, 0)
				return img
			},
			threshold: 232,
			dpi:       72,
			full:      fullLetter,
			want:      geometry.New(5, 192, 6, 193),
		},
		{
			name:      "fully_dark_page_spans_full_box",
			img:       func() *image.Gray { return grayImage(image.Rect(0, 0, 100, 200), 0) },
			threshold: 232,
			dpi:       72,
			full:      fullLetter,
			want:      fullLetter,
		},
		{
			name: "dpi_scales_pixels_to_points",
			img: func() *image.Gray {
				img := grayImage(image.Rect(0, 0, 100, 200), 0xFF)
				paintRect(img, 10, 20, 19, 39, 0)
				return img
			},
			threshold: 232,
			dpi:       144,
			full:      geometry.New(0, 0, 50, 100),
			want:      geometry.New(5, 80, 10, 90),
		},
		{
			name: "pixel_at_threshold_is_content",
			img: func() *image.Gray {
				img := grayImage(image.Rect(0, 0, 100, 200), 0xFF)
				paintRect(img, 3, 4, 3, 4, 200)
				return img
			},
			threshold: 200,
			dpi:       72,
			full:      fullLetter,
			want:      geometry.New(3, 195, 4, 196),
		},
		{
			name: "pixel_above_threshold_is_background",
			img: func() *image.Gray {
				img := grayImage(image.Rect(0, 0, 100, 200), 0xFF)
				paintRect(img, 3, 4, 3, 4, 201)
				return img
			},
			threshold: 200,
			dpi:       72,
			full:      fullLetter,
			want:      fullLetter,
		},
		{
			name: "subimage_origin_normalized",
			img: func() *image.Gray {
				img := grayImage(image.Rect(5, 5, 105, 205), 0xFF)
				paintRect(img, 15, 25, 24, 44, 0)
				return img
			},
			threshold: 232,
			dpi:       72,
			full:      fullLetter,
			want:      geometry.New(10, 160, 20, 180),
		},
		{
			name: "full_box_with_shifted_origin",
			img: func() *image.Gray {
				img := grayImage(image.Rect(0, 0, 100, 200), 0xFF)
				paintRect(img, 10, 20, 19, 39, 0)
				return img
			},
			threshold: 232,
			dpi:       72,
			full:      geometry.New(-10, 5, 90, 205),
			want:      geometry.New(0, 165, 10, 185),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := contentBounds(tc.img(), tc.threshold, tc.dpi, tc.full)
			assert.True(t, tc.want.Equals(got, 1e-9), "want %v got %v", tc.want, got)
		})
	}
}

func TestRenderDetectSkipsUnselectedPages(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Nothing selected, so no page ever reaches Ghostscript and the
	// placeholders are the full boxes verbatim.
	engine := NewRenderEngine(Options{GhostscriptPath: "definitely-not-installed"}, nil)
	full := []geometry.Box{
		geometry.New(0, 0, 612, 792),
		geometry.New(0, 0, 595, 842),
	}

	got, err := engine.Detect(context.Background(), "ignored.pdf", 2, full, pagespec.Selection{})
	require.NoError(t, err)
	assert.Equal(t, full, got)
}

func TestRenderDetectLengthMismatch(t *testing.T) {
	t.Parallel()

	engine := NewRenderEngine(Options{}, nil)
	_, err := engine.Detect(context.Background(), "ignored.pdf", 3, []geometry.Box{geometry.New(0, 0, 1, 1)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full-page box list")
}
