package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/partvid/internal/dynamo"
)

const (
	DefaultWidth       = 1200
	DefaultHeight      = 500
	DefaultFPS         = 24
	DefaultMargin      = 20.0
	DefaultCounterStep = 1
	DefaultEncoder     = "ffmpeg"
	DefaultCRF         = 20
	DefaultPreset      = "fast"
	DefaultDepth       = 1
	DefaultDataDir     = ".partvid"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	LabelsOff   = "off"
	LabelsIndex = "index"
)

var (
	ThemeNames = []string{ThemeLight, ThemeDark}
	LabelModes = []string{LabelsOff, LabelsIndex}
)

// Render holds everything needed to draw one input file. It is fixed before
// the first frame and never changed while the file renders.
type Render struct {
	BoardSize   float64 `yaml:"board_size" json:"board_size"`
	RectHeight  float64 `yaml:"rect_height" json:"rect_height"`
	Width       int     `yaml:"width" json:"width"`
	Height      int     `yaml:"height" json:"height"`
	FPS         int     `yaml:"fps" json:"fps"`
	Margin      float64 `yaml:"margin" json:"margin"`
	Theme       string  `yaml:"theme" json:"theme"`
	Labels      string  `yaml:"labels" json:"labels"`
	CounterStep int     `yaml:"counter_step" json:"counter_step"`
	Interpolate bool    `yaml:"interpolate" json:"interpolate"`
}

type EncoderConfig struct {
	Binary string `yaml:"binary"`
	CRF    int    `yaml:"crf"`
	Preset string `yaml:"preset"`
	Depth  int    `yaml:"depth"`
}

type Config struct {
	Render  Render        `yaml:"render"`
	Encoder EncoderConfig `yaml:"encoder"`
	OutDir  string        `yaml:"out_dir"`
	DataDir string        `yaml:"data_dir"`
	Jobs    int           `yaml:"jobs"`
}

func DefaultRender() Render {
	return Render{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		FPS:         DefaultFPS,
		Margin:      DefaultMargin,
		Theme:       ThemeLight,
		Labels:      LabelsOff,
		CounterStep: DefaultCounterStep,
		Interpolate: true,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Render: DefaultRender(),
		Encoder: EncoderConfig{
			Binary: DefaultEncoder,
			CRF:    DefaultCRF,
			Preset: DefaultPreset,
			Depth:  DefaultDepth,
		},
		OutDir:  ".",
		DataDir: DefaultDataDir,
		Jobs:    1,
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the yaml file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the render settings for one file.
func (r Render) Validate() error {
	switch {
	case !(r.BoardSize > 0):
		return dynamo.Invalid("board-size", "must be positive, got %g", r.BoardSize)
	case !(r.RectHeight > 0):
		return dynamo.Invalid("rect-height", "must be positive, got %g", r.RectHeight)
	case r.Width <= 0:
		return dynamo.Invalid("width", "must be a positive integer, got %d", r.Width)
	case r.Height <= 0:
		return dynamo.Invalid("height", "must be a positive integer, got %d", r.Height)
	case r.FPS <= 0:
		return dynamo.Invalid("video-fps", "must be a positive integer, got %d", r.FPS)
	case r.Margin < 0:
		return dynamo.Invalid("margin", "must not be negative, got %g", r.Margin)
	case 2*r.Margin >= float64(min(r.Width, r.Height)):
		return dynamo.Invalid("margin", "%g leaves no room on a %dx%d canvas", r.Margin, r.Width, r.Height)
	case r.CounterStep <= 0:
		return dynamo.Invalid("counter-step", "must be a positive integer, got %d", r.CounterStep)
	case !slices.Contains(ThemeNames, r.Theme):
		return dynamo.Invalid("theme", "unknown theme %q (available: %v)", r.Theme, ThemeNames)
	case !slices.Contains(LabelModes, r.Labels):
		return dynamo.Invalid("labels", "unknown mode %q (available: %v)", r.Labels, LabelModes)
	}
	return nil
}

func (e EncoderConfig) Validate() error {
	switch {
	case e.Binary == "":
		return dynamo.Invalid("ffmpeg", "encoder binary must be set")
	case e.CRF < 0 || e.CRF > 51:
		return dynamo.Invalid("crf", "must be within 0..51, got %d", e.CRF)
	case e.Depth <= 0:
		return dynamo.Invalid("depth", "must be positive, got %d", e.Depth)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Encoder.Validate(); err != nil {
		return err
	}
	if c.Jobs <= 0 {
		return dynamo.Invalid("jobs", "must be positive, got %d", c.Jobs)
	}
	return nil
}

// PerInput expands a one-or-per-input list of values to exactly n entries.
func PerInput(field string, values []float64, n int) ([]float64, error) {
	for _, v := range values {
		if !(v > 0) {
			return nil, dynamo.Invalid(field, "must be positive, got %g", v)
		}
	}
	switch len(values) {
	case 0:
		return nil, dynamo.Invalid(field, "required")
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	case n:
		return slices.Clone(values), nil
	default:
		return nil, dynamo.Invalid(field, "expected 1 or %d values, got %d", n, len(values))
	}
}
