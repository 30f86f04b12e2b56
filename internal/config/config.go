// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. Fields are exported
// so viper can unmarshal into them; access is by value, and the loaded
// configuration is treated as immutable after validation.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Crop   CropConfig   `mapstructure:"crop" yaml:"crop"`
	Detect DetectConfig `mapstructure:"detect" yaml:"detect"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// CropConfig holds the geometry settings for a cropping run.
//
// PercentRetain and AbsoluteOffset accept either a single value, which
// expands to all four margins, or exactly four values ordered
// left, bottom, right, top. UniformOrderStat and UniformOrderPercent are
// nil when unset; supplying either implies uniform mode.
type CropConfig struct {
	PercentRetain       []float64 `mapstructure:"percent_retain" yaml:"percent_retain"`
	AbsoluteOffset      []float64 `mapstructure:"absolute_offset" yaml:"absolute_offset"`
	Uniform             bool      `mapstructure:"uniform" yaml:"uniform"`
	EvenOdd             bool      `mapstructure:"even_odd" yaml:"even_odd"`
	SamePageSize        bool      `mapstructure:"same_page_size" yaml:"same_page_size"`
	UniformOrderStat    *int      `mapstructure:"uniform_order_stat" yaml:"uniform_order_stat"`
	UniformOrderPercent *float64  `mapstructure:"uniform_order_percent" yaml:"uniform_order_percent"`
	Pages               string    `mapstructure:"pages" yaml:"pages"`
	FullPageBox         []string  `mapstructure:"full_page_box" yaml:"full_page_box"`
	BoxesToSet          []string  `mapstructure:"boxes_to_set" yaml:"boxes_to_set"`
	NoUndoSave          bool      `mapstructure:"no_undo_save" yaml:"no_undo_save"`
}

// DetectConfig selects and tunes the tight-bounding-box detection engine.
type DetectConfig struct {
	Engine          string        `mapstructure:"engine" yaml:"engine"`
	GhostscriptPath string        `mapstructure:"ghostscript_path" yaml:"ghostscript_path"`
	DPI             int           `mapstructure:"dpi" yaml:"dpi"`
	Threshold       int           `mapstructure:"threshold" yaml:"threshold"`
	Workers         int           `mapstructure:"workers" yaml:"workers"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RenderFormat    string        `mapstructure:"render_format" yaml:"render_format"`
}

// OutputConfig controls where the cropped document goes and the file
// plumbing around it.
type OutputConfig struct {
	Path              string `mapstructure:"path" yaml:"path"`
	SuffixCropped     string `mapstructure:"suffix_cropped" yaml:"suffix_cropped"`
	SuffixUncropped   string `mapstructure:"suffix_uncropped" yaml:"suffix_uncropped"`
	Separator         string `mapstructure:"separator" yaml:"separator"`
	UsePrefix         bool   `mapstructure:"use_prefix" yaml:"use_prefix"`
	NoClobber         bool   `mapstructure:"no_clobber" yaml:"no_clobber"`
	ModifyOriginal    bool   `mapstructure:"modify_original" yaml:"modify_original"`
	NoClobberOriginal bool   `mapstructure:"no_clobber_original" yaml:"no_clobber_original"`
	Preview           string `mapstructure:"preview" yaml:"preview"`
	ReportPath        string `mapstructure:"report_path" yaml:"report_path"`
	Repair            bool   `mapstructure:"repair" yaml:"repair"`
}

// Box source and target kinds accepted in configuration. Both the long
// names and the single-letter forms of the original tool are recognized.
var validBoxKinds = map[string]bool{
	"m": true, "media": true,
	"c": true, "crop": true,
	"t": true, "trim": true,
	"a": true, "art": true,
	"b": true, "bleed": true,
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("default config failed validation: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagetrim")
	// An empty log_file disables the rotating file core.
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", true)

	// -- Crop --
	v.SetDefault("crop.percent_retain", []float64{0})
	v.SetDefault("crop.absolute_offset", []float64{0})
	v.SetDefault("crop.uniform", false)
	v.SetDefault("crop.even_odd", false)
	v.SetDefault("crop.same_page_size", false)
	v.SetDefault("crop.pages", "")
	v.SetDefault("crop.full_page_box", []string{})
	v.SetDefault("crop.boxes_to_set", []string{})
	v.SetDefault("crop.no_undo_save", false)

	// -- Detect --
	v.SetDefault("detect.engine", "bbox")
	v.SetDefault("detect.ghostscript_path", "gs")
	v.SetDefault("detect.dpi", 150)
	v.SetDefault("detect.threshold", 232)
	v.SetDefault("detect.workers", 4)
	v.SetDefault("detect.timeout", "2m")
	v.SetDefault("detect.render_format", "png")

	// -- Output --
	v.SetDefault("output.path", "")
	v.SetDefault("output.suffix_cropped", "cropped")
	v.SetDefault("output.suffix_uncropped", "uncropped")
	v.SetDefault("output.separator", "_")
	v.SetDefault("output.use_prefix", false)
	v.SetDefault("output.no_clobber", false)
	v.SetDefault("output.modify_original", false)
	v.SetDefault("output.no_clobber_original", false)
	v.SetDefault("output.preview", "")
	v.SetDefault("output.report_path", "")
	v.SetDefault("output.repair", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
// Scalar margin values are expanded to all four margins as a side effect.
func (c *Config) Validate() error {
	if err := c.Crop.Validate(); err != nil {
		return fmt.Errorf("crop configuration invalid: %w", err)
	}
	if err := c.Detect.Validate(); err != nil {
		return fmt.Errorf("detect configuration invalid: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the crop settings and expands scalar margin forms.
func (c *CropConfig) Validate() error {
	var err error
	if c.PercentRetain, err = expandMargins(c.PercentRetain); err != nil {
		return fmt.Errorf("percent_retain: %w", err)
	}
	if c.AbsoluteOffset, err = expandMargins(c.AbsoluteOffset); err != nil {
		return fmt.Errorf("absolute_offset: %w", err)
	}
	if c.UniformOrderStat != nil && c.UniformOrderPercent != nil {
		return fmt.Errorf("uniform_order_stat and uniform_order_percent are mutually exclusive")
	}
	for _, kind := range c.FullPageBox {
		if !validBoxKinds[kind] {
			return fmt.Errorf("unknown full_page_box kind %q", kind)
		}
	}
	for _, kind := range c.BoxesToSet {
		if !validBoxKinds[kind] {
			return fmt.Errorf("unknown boxes_to_set kind %q", kind)
		}
	}
	return nil
}

// Validate checks the detection engine settings.
func (d *DetectConfig) Validate() error {
	switch d.Engine {
	case "bbox", "render":
	default:
		return fmt.Errorf("engine must be one of bbox, render; got %q", d.Engine)
	}
	if d.GhostscriptPath == "" {
		return fmt.Errorf("ghostscript_path must not be empty")
	}
	if d.DPI <= 0 {
		return fmt.Errorf("dpi must be a positive integer")
	}
	if d.Threshold < 0 || d.Threshold > 255 {
		return fmt.Errorf("threshold must be in [0, 255]")
	}
	if d.Workers <= 0 {
		return fmt.Errorf("workers must be a positive integer")
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	switch d.RenderFormat {
	case "png", "tiff":
	default:
		return fmt.Errorf("render_format must be one of png, tiff; got %q", d.RenderFormat)
	}
	return nil
}

// Validate checks the output plumbing settings.
func (o *OutputConfig) Validate() error {
	if o.SuffixCropped == "" {
		return fmt.Errorf("suffix_cropped must not be empty")
	}
	if o.SuffixUncropped == "" {
		return fmt.Errorf("suffix_uncropped must not be empty")
	}
	return nil
}

// expandMargins normalizes a margin list: one value expands to all four
// margins, four values pass through, anything else is rejected.
func expandMargins(vals []float64) ([]float64, error) {
	switch len(vals) {
	case 1:
		return []float64{vals[0], vals[0], vals[0], vals[0]}, nil
	case 4:
		return vals, nil
	default:
		return nil, fmt.Errorf("expected 1 or 4 values, got %d", len(vals))
	}
}
