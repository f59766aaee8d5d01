package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"

	"svgdx/common"
	"svgdx/doc"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestLoadConfiguration_Defaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	// template defaults must agree with the pipeline defaults
	if got, want := cfg.Transform.Options(), doc.DefaultOptions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Options() = %+v, want %+v", got, want)
	}
	if cfg.Output.PNG.Enable {
		t.Error("Expected PNG output to be disabled by default")
	}
	if cfg.Output.PNG.StrokeWidthFactor != 1 {
		t.Errorf("StrokeWidthFactor = %f, want 1", cfg.Output.PNG.StrokeWidthFactor)
	}
	if cfg.Output.NameTemplate != "" {
		t.Errorf("NameTemplate = %q, want empty", cfg.Output.NameTemplate)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("Console logger level = %s, want normal", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
transform:
  debug: true
  scale: 2.5
  border: 0
  add_auto_styles: false
  auto_style_mode: inline
  seed: 42
  loop_limit: 10
  theme: dark
  svg_style: "background: white"
output:
  name_template: '{{ .Name }}-{{ .Index }}'
  png:
    enable: true
    width: 800
logging:
  console:
    level: normal
  file:
    level: debug
    destination: ` + filepath.Join(tmpDir, "test.log") + `
    mode: append
reporting:
  destination: ` + filepath.Join(tmpDir, "test-report.zip") + `
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if !cfg.Transform.Debug {
		t.Error("Expected Debug to be true")
	}
	if cfg.Transform.Scale != 2.5 {
		t.Errorf("Scale = %f, want 2.5", cfg.Transform.Scale)
	}
	if cfg.Transform.Border != 0 {
		t.Errorf("Border = %f, want 0", cfg.Transform.Border)
	}
	if cfg.Transform.AddAutoStyles {
		t.Error("Expected AddAutoStyles to be false")
	}
	if cfg.Transform.AutoStyleMode != common.AutoStyleModeInline {
		t.Errorf("AutoStyleMode = %v, want %v", cfg.Transform.AutoStyleMode, common.AutoStyleModeInline)
	}
	if cfg.Transform.Theme != common.ThemeDark {
		t.Errorf("Theme = %v, want %v", cfg.Transform.Theme, common.ThemeDark)
	}
	if cfg.Transform.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Transform.Seed)
	}
	if cfg.Transform.LoopLimit != 10 {
		t.Errorf("LoopLimit = %d, want 10", cfg.Transform.LoopLimit)
	}
	// values absent from the file keep template defaults
	if cfg.Transform.VarLimit != 1024 {
		t.Errorf("VarLimit = %d, want 1024", cfg.Transform.VarLimit)
	}
	if cfg.Transform.FontFamily != "sans-serif" {
		t.Errorf("FontFamily = %q, want sans-serif", cfg.Transform.FontFamily)
	}
	if cfg.Output.NameTemplate != "{{ .Name }}-{{ .Index }}" {
		t.Errorf("NameTemplate = %q, want template kept verbatim", cfg.Output.NameTemplate)
	}
	if !cfg.Output.PNG.Enable || cfg.Output.PNG.Width != 800 {
		t.Errorf("PNG = %+v, want enabled with width 800", cfg.Output.PNG)
	}
	if cfg.Logging.FileLogger.Level != "debug" {
		t.Errorf("File logger level = %s, want debug", cfg.Logging.FileLogger.Level)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("File logger mode = %s, want append", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadConfiguration() with non-existent file should return error")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected 'failed to read config file' error, got: %v", err)
	}
}

func TestLoadConfiguration_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidContent := `version: 1
transform:
  scale: [invalid
`
	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("LoadConfiguration() with invalid YAML should return error")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unknown.yaml")

	unknownContent := `version: 1
transform:
  scale: 1
  unknown_field: "should fail"
`
	if err := os.WriteFile(configPath, []byte(unknownContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("LoadConfiguration() with unknown fields should return error (KnownFields=true)")
	}
}

func TestLoadConfiguration_InvalidEnum(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "enum.yaml")

	if err := os.WriteFile(configPath, []byte("version: 1\ntransform:\n  theme: neon\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Fatal("LoadConfiguration() with unknown theme should return error")
	}
	if !errors.Is(err, common.ErrInvalidTheme) {
		t.Errorf("error = %v, want %v", err, common.ErrInvalidTheme)
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version: 2\n"},
		{"scale", "version: 1\ntransform:\n  scale: 0\n"},
		{"loop limit", "version: 1\ntransform:\n  loop_limit: 0\n"},
		{"font family", "version: 1\ntransform:\n  font_family: \"\"\n"},
		{"png size", "version: 1\noutput:\n  png:\n    width: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Errorf("LoadConfiguration() with invalid %s should return validation error", tt.name)
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	cfg, err := LoadConfiguration("", gencfg.WithDoNotExpandField("custom_field"))
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Prepare() returned empty data")
	}

	for _, section := range []string{"version:", "transform:", "output:", "logging:", "reporting:"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("Prepared config should contain %q", section)
		}
	}
}

func TestPrepare_RoundTrip(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := LoadConfiguration(configPath); err != nil {
		t.Errorf("LoadConfiguration() of prepared config error = %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Transform.Theme = common.ThemeGlass

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Dump() returned empty data")
	}

	if !strings.Contains(string(data), "version: 1") {
		t.Error("Dumped config should contain version: 1")
	}
	if !strings.Contains(string(data), "theme: glass") {
		t.Errorf("Dumped config should carry theme by name, got:\n%s", data)
	}

	// dumped configuration must be loadable again
	var back Config
	if _, err := unmarshalConfig(data, &back, false); err != nil {
		t.Fatalf("unmarshalConfig() of dumped data error = %v", err)
	}
	if back.Transform != cfg.Transform {
		t.Errorf("Transform after round trip = %+v, want %+v", back.Transform, cfg.Transform)
	}
}

func TestUnmarshalConfig(t *testing.T) {
	data := []byte(`version: 1
transform:
  scale: 3
`)

	cfg := &Config{}
	result, err := unmarshalConfig(data, cfg, false)
	if err != nil {
		t.Fatalf("unmarshalConfig() error = %v", err)
	}

	if result.Version != 1 {
		t.Errorf("Version = %d, want 1", result.Version)
	}

	if result.Transform.Scale != 3 {
		t.Errorf("Scale = %f, want 3", result.Transform.Scale)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	data := []byte("version: 7\n")

	_, err := unmarshalConfig(data, &Config{}, true)
	if err == nil {
		t.Fatal("unmarshalConfig() should fail validation")
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("error should wrap validation cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("error should mention validation, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	conf := TransformConfig{
		Debug:           true,
		Scale:           2,
		Border:          1,
		AutoStyleMode:   common.AutoStyleModeNone,
		Background:      "#fff",
		Seed:            7,
		LoopLimit:       3,
		VarLimit:        4,
		DepthLimit:      5,
		PathRepeatLimit: 6,
		FontSize:        4,
		FontFamily:      "serif",
		Theme:           common.ThemeBold,
		SvgStyle:        "margin: 0",
		StylesheetPath:  "/some/where.css",
	}
	o := conf.Options()
	want := doc.Options{
		Debug:           true,
		Scale:           2,
		Border:          1,
		AutoStyleMode:   common.AutoStyleModeNone,
		Background:      "#fff",
		Seed:            7,
		LoopLimit:       3,
		VarLimit:        4,
		DepthLimit:      5,
		PathRepeatLimit: 6,
		FontSize:        4,
		FontFamily:      "serif",
		Theme:           common.ThemeBold,
		SvgStyle:        "margin: 0",
	}
	if !reflect.DeepEqual(o, want) {
		t.Errorf("Options() = %+v, want %+v", o, want)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
