package doc

import (
	"fmt"
	"strconv"
	"strings"

	"svgdx/common"
)

// Options is the flat options record consumed by the transform.
type Options struct {
	Debug           bool
	Scale           float64
	Border          float64
	AddAutoStyles   bool
	AutoStyleMode   common.AutoStyleMode
	Background      string
	Seed            int64
	LoopLimit       int
	VarLimit        int
	DepthLimit      int
	PathRepeatLimit int
	FontSize        float64
	FontFamily      string
	Theme           common.Theme
	SvgStyle        string
	UserStylesheet  string
}

func DefaultOptions() Options {
	return Options{
		Scale:           1,
		Border:          5,
		AddAutoStyles:   true,
		AutoStyleMode:   common.AutoStyleModeCss,
		Background:      "default",
		LoopLimit:       1000,
		VarLimit:        1024,
		DepthLimit:      100,
		PathRepeatLimit: 10000,
		FontSize:        3,
		FontFamily:      "sans-serif",
		Theme:           common.ThemeDefault,
	}
}

// Validate checks that limits and scale factors are usable.
func (o Options) Validate() error {
	switch {
	case o.Scale <= 0:
		return fmt.Errorf("scale must be positive, got %v", o.Scale)
	case o.Border < 0:
		return fmt.Errorf("border must not be negative, got %v", o.Border)
	case o.LoopLimit <= 0, o.VarLimit <= 0, o.DepthLimit <= 0, o.PathRepeatLimit <= 0:
		return fmt.Errorf("limits must be positive (loop %d, var %d, depth %d, path repeat %d)",
			o.LoopLimit, o.VarLimit, o.DepthLimit, o.PathRepeatLimit)
	case o.FontSize <= 0:
		return fmt.Errorf("font size must be positive, got %v", o.FontSize)
	}
	return nil
}

// Set applies a single option given by its markup attribute name, as used
// by <config> elements.
func (o *Options) Set(name, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch name {
	case "debug":
		o.Debug, err = strconv.ParseBool(value)
	case "scale":
		o.Scale, err = strconv.ParseFloat(value, 64)
	case "border":
		o.Border, err = strconv.ParseFloat(value, 64)
	case "add-auto-styles", "auto-styles":
		o.AddAutoStyles, err = strconv.ParseBool(value)
	case "auto-style-mode":
		o.AutoStyleMode, err = common.ParseAutoStyleMode(value)
	case "background":
		o.Background = value
	case "seed":
		o.Seed, err = strconv.ParseInt(value, 10, 64)
	case "loop-limit":
		o.LoopLimit, err = strconv.Atoi(value)
	case "var-limit":
		o.VarLimit, err = strconv.Atoi(value)
	case "depth-limit":
		o.DepthLimit, err = strconv.Atoi(value)
	case "path-repeat-limit":
		o.PathRepeatLimit, err = strconv.Atoi(value)
	case "font-size":
		o.FontSize, err = strconv.ParseFloat(value, 64)
	case "font-family":
		o.FontFamily = value
	case "theme":
		o.Theme, err = common.ParseTheme(value)
	case "svg-style":
		o.SvgStyle = value
	default:
		return fmt.Errorf("unknown option %q", name)
	}
	if err != nil {
		return fmt.Errorf("option %s: %w", name, err)
	}
	return o.Validate()
}
