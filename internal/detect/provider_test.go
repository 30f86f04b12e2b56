// internal/detect/provider_test.go
package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsWithDefaults(t *testing.T) {
	t.Parallel()

	t.Run("zero_value_filled", func(t *testing.T) {
		t.Parallel()
		opts := Options{}.withDefaults()
		assert.Equal(t, "gs", opts.GhostscriptPath)
		assert.Equal(t, 2*time.Minute, opts.Timeout)
		assert.Equal(t, 150, opts.DPI)
		assert.Equal(t, 232, opts.Threshold)
		assert.Equal(t, 4, opts.Workers)
		assert.Equal(t, FormatPNG, opts.RenderFormat)
	})

	t.Run("explicit_values_kept", func(t *testing.T) {
		t.Parallel()
		opts := Options{
			GhostscriptPath: "/opt/gs/bin/gs",
			Timeout:         30 * time.Second,
			DPI:             300,
			Threshold:       191,
			Workers:         8,
			RenderFormat:    FormatTIFF,
		}
		assert.Equal(t, opts, opts.withDefaults())
	})
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		engine  string
		want    interface{}
		wantErr bool
	}{
		{name: "bbox", engine: EngineBBox, want: &BBoxEngine{}},
		{name: "empty_defaults_to_bbox", engine: "", want: &BBoxEngine{}},
		{name: "render", engine: EngineRender, want: &RenderEngine{}},
		{name: "unknown_engine", engine: "magic", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewProvider(tc.engine, Options{}, nil)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown detection engine")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, p)
		})
	}
}
