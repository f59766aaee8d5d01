// Package theme builds the automatic styling of a document: a stylesheet and
// definitions driven by the element names and classes the document uses.
package theme

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"svgdx/common"
	"svgdx/css"
	"svgdx/doc"
	"svgdx/element"
)

const arrowHeadClass = "d-arrow-head"

// Styles is the automatic styling for one document.
type Styles struct {
	// Auto holds the generated rules, User the parsed user stylesheet.
	Auto *css.Stylesheet
	User *css.Stylesheet

	mode common.AutoStyleMode
	defs []*element.Node
}

// Build generates styles for a document that used the given element names
// and classes. A user stylesheet that does not parse is an error.
func Build(opts doc.Options, names, classes []string, log *zap.Logger) (*Styles, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("theme")

	s := &Styles{Auto: &css.Stylesheet{}, mode: opts.AutoStyleMode}
	if !opts.AddAutoStyles {
		s.mode = common.AutoStyleModeNone
	}
	if opts.UserStylesheet != "" {
		user, err := css.NewParser(log).Parse([]byte(opts.UserStylesheet), "user stylesheet")
		if err != nil {
			return nil, fmt.Errorf("user stylesheet: %w", err)
		}
		for _, w := range user.Warnings {
			log.Debug("User stylesheet", zap.String("warning", w))
		}
		s.User = user
	}
	if s.mode == common.AutoStyleModeNone {
		return s, nil
	}

	pal := paletteFor(opts.Theme)
	seen := make(map[string]bool, len(names)+len(classes))
	for _, n := range names {
		seen[n] = true
	}
	for _, c := range classes {
		seen["."+c] = true
	}
	if seen[".d-arrow"] || seen[".d-biarrow"] {
		seen["#d-arrow"] = true
		s.defs = append(s.defs, arrowMarker(pal, s.mode))
	}

	bg := opts.Background
	if bg == "" || bg == "default" {
		bg = pal.background
	}
	if bg != "none" {
		s.Auto.Add("svg", "background", bg)
	}
	for _, r := range rules(pal, opts.FontSize, opts.FontFamily) {
		if seen[r.when] {
			s.Auto.Add(r.selector, r.decls...)
		}
	}
	log.Debug("Automatic styles",
		zap.Stringer("theme", opts.Theme),
		zap.Stringer("mode", s.mode),
		zap.Int("rules", s.Auto.Len()),
		zap.Int("defs", len(s.defs)))
	return s, nil
}

func arrowMarker(pal palette, mode common.AutoStyleMode) *element.Node {
	head := element.New("polygon",
		element.Attr{Name: "class", Value: arrowHeadClass},
		element.Attr{Name: "points", Value: "0 1, 10 5, 0 9"},
	)
	if mode == common.AutoStyleModeInline {
		head.Set("fill", pal.stroke)
		head.Set("stroke", "none")
	}
	marker := element.New("marker",
		element.Attr{Name: "id", Value: "d-arrow"},
		element.Attr{Name: "viewBox", Value: "0 0 10 10"},
		element.Attr{Name: "refX", Value: "9"},
		element.Attr{Name: "refY", Value: "5"},
		element.Attr{Name: "markerWidth", Value: "5"},
		element.Attr{Name: "markerHeight", Value: "5"},
		element.Attr{Name: "orient", Value: "auto-start-reverse"},
	)
	return &element.Node{
		Kind:     element.EventStart,
		Element:  marker,
		Children: []*element.Node{{Kind: element.EventStart, Element: head, Empty: true}},
	}
}

// Events returns the <style> and <defs> elements to place at the start of
// the root element. In inline mode only the user stylesheet is written.
func (s *Styles) Events() []element.Event {
	var sheet css.Stylesheet
	if s.mode == common.AutoStyleModeCss {
		sheet.Append(s.Auto)
	}
	sheet.Append(s.User)

	var out []element.Event
	if sheet.Len() > 0 {
		style := element.New("style")
		out = append(out, element.Start(style), element.Text("\n"+sheet.String()), element.End(style))
	}
	if len(s.defs) > 0 {
		defs := &element.Node{Kind: element.EventStart, Element: element.New("defs"), Children: s.defs}
		out = append(out, element.Events(defs)...)
	}
	return out
}

// styleOnly are properties without an SVG presentation attribute.
var styleOnly = []string{"background", "background-color"}

// Apply writes the automatic rules matching el onto it as presentation
// attributes, leaving attributes already present alone. It does nothing
// unless the mode is inline.
func (s *Styles) Apply(el *element.Element) {
	if s.mode != common.AutoStyleModeInline {
		return
	}
	props := s.Auto.Inline(el.Name, el.Classes)
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var style []string
	for _, k := range keys {
		if slices.Contains(styleOnly, k) {
			style = append(style, k+": "+props[k])
			continue
		}
		if !el.Has(k) {
			el.Set(k, props[k])
		}
	}
	if len(style) > 0 {
		joined := strings.Join(style, "; ")
		if old := strings.TrimSpace(el.Attrs.Value("style")); old != "" {
			joined += "; " + old
		}
		el.Set("style", joined)
	}
}
