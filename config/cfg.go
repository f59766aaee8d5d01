package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"svgdx/common"
	"svgdx/doc"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	TransformConfig struct {
		Debug           bool                 `yaml:"debug"`
		Scale           float64              `yaml:"scale" validate:"gt=0"`
		Border          float64              `yaml:"border" validate:"gte=0"`
		AddAutoStyles   bool                 `yaml:"add_auto_styles"`
		AutoStyleMode   common.AutoStyleMode `yaml:"auto_style_mode" validate:"gte=0"`
		Background      string               `yaml:"background"`
		Seed            int64                `yaml:"seed"`
		LoopLimit       int                  `yaml:"loop_limit" validate:"min=1"`
		VarLimit        int                  `yaml:"var_limit" validate:"min=1"`
		DepthLimit      int                  `yaml:"depth_limit" validate:"min=1"`
		PathRepeatLimit int                  `yaml:"path_repeat_limit" validate:"min=1"`
		FontSize        float64              `yaml:"font_size" validate:"gt=0"`
		FontFamily      string               `yaml:"font_family" validate:"required"`
		Theme           common.Theme         `yaml:"theme" validate:"gte=0"`
		SvgStyle        string               `yaml:"svg_style"`
		StylesheetPath  string               `yaml:"stylesheet_path" sanitize:"assure_file_access"`
	}

	PNGConfig struct {
		Enable            bool    `yaml:"enable"`
		Width             int     `yaml:"width" validate:"gte=0"`
		Height            int     `yaml:"height" validate:"gte=0"`
		StrokeWidthFactor float64 `yaml:"stroke_width_factor" validate:"gte=0.0"`
	}

	OutputConfig struct {
		NameTemplate          string    `yaml:"name_template"`
		FileNameTransliterate bool      `yaml:"file_name_transliterate"`
		PNG                   PNGConfig `yaml:"png"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Transform TransformConfig `yaml:"transform"`
		Output    OutputConfig    `yaml:"output"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	NameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(NameTemplateFieldName)),
)

// Options converts transform configuration into the options record used by
// the pipeline. The user stylesheet is read by the caller.
func (conf *TransformConfig) Options() doc.Options {
	return doc.Options{
		Debug:           conf.Debug,
		Scale:           conf.Scale,
		Border:          conf.Border,
		AddAutoStyles:   conf.AddAutoStyles,
		AutoStyleMode:   conf.AutoStyleMode,
		Background:      conf.Background,
		Seed:            conf.Seed,
		LoopLimit:       conf.LoopLimit,
		VarLimit:        conf.VarLimit,
		DepthLimit:      conf.DepthLimit,
		PathRepeatLimit: conf.PathRepeatLimit,
		FontSize:        conf.FontSize,
		FontFamily:      conf.FontFamily,
		Theme:           conf.Theme,
		SvgStyle:        conf.SvgStyle,
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
