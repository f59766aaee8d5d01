package css

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"unicode"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
func cssEscapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "0.5", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "px", "%", "em"...
	Keyword string  // Keyword if applicable: "none", "middle"...
}

// RawValue builds a value from its textual form.
func RawValue(s string) Value { return Value{Raw: s, Keyword: s} }

// IsNumeric returns true if the value has a numeric component, including
// explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	if v.Raw != "" && v.Keyword == "" {
		first := rune(v.Raw[0])
		if unicode.IsDigit(first) || first == '.' || first == '-' || first == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Selector represents a parsed CSS selector with its components. Selectors
// that are neither simple nor descendant are kept by Raw only.
type Selector struct {
	Raw      string    // Original selector string
	Element  string    // Element name (e.g., "rect") or empty for class-only
	Class    string    // Class name without dot or empty
	Ancestor *Selector // Ancestor for descendant selectors ("g rect" -> "g")
}

// IsSimple returns true for element, class and element.class selectors.
func (s Selector) IsSimple() bool {
	return (s.Element != "" || s.Class != "") && s.Ancestor == nil
}

// IsDescendant returns true if this is a descendant selector.
func (s Selector) IsDescendant() bool {
	return s.Ancestor != nil
}

// Specificity ranks simple selectors: element, then class, then both.
func (s Selector) Specificity() int {
	n := 0
	if s.Element != "" {
		n++
	}
	if s.Class != "" {
		n += 2
	}
	return n
}

// Matches reports whether a simple selector applies to an element.
func (s Selector) Matches(name string, classes []string) bool {
	if !s.IsSimple() {
		return false
	}
	if s.Element != "" && s.Element != "*" && s.Element != name {
		return false
	}
	return s.Class == "" || slices.Contains(classes, s.Class)
}

// Rule represents a single CSS rule (selector + properties).
type Rule struct {
	Selector   Selector
	Properties map[string]Value
}

// GetProperty returns the value for a property, or empty Value if not found.
func (r Rule) GetProperty(name string) (Value, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// FontFace represents an @font-face declaration.
type FontFace struct {
	Family string
	Src    string
	Style  string
	Weight string
}

// MediaBlock represents a @media block with its query and nested rules.
type MediaBlock struct {
	Query string
	Rules []Rule
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule, MediaBlock, FontFace or Import is non-nil.
type StylesheetItem struct {
	Rule       *Rule
	MediaBlock *MediaBlock
	FontFace   *FontFace
	Import     *string
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for selectors inline mode cannot apply
}

// Add appends a rule. Declarations come as name, value pairs.
func (s *Stylesheet) Add(selector string, decls ...string) {
	rule := Rule{
		Selector:   NewParser(nil).parseSelector(selector, s),
		Properties: make(map[string]Value, len(decls)/2),
	}
	for i := 0; i+1 < len(decls); i += 2 {
		rule.Properties[decls[i]] = RawValue(decls[i+1])
	}
	s.Items = append(s.Items, StylesheetItem{Rule: &rule})
}

// Append adds all items of o after those of s, so o wins on conflicts.
func (s *Stylesheet) Append(o *Stylesheet) {
	if o == nil {
		return
	}
	s.Items = append(s.Items, o.Items...)
	s.Warnings = append(s.Warnings, o.Warnings...)
}

// Len returns the number of top-level items.
func (s *Stylesheet) Len() int { return len(s.Items) }

// Imports returns all @import URLs from the stylesheet in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, *item.Import)
		}
	}
	return urls
}

// FontFaces returns all @font-face declarations with a family.
func (s *Stylesheet) FontFaces() []FontFace {
	var faces []FontFace
	for _, item := range s.Items {
		if item.FontFace != nil && item.FontFace.Family != "" {
			faces = append(faces, *item.FontFace)
		}
	}
	return faces
}

// RulesBySelector returns all top-level rules matching the given selector string.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector.Raw == selector {
			matches = append(matches, *item.Rule)
		}
	}
	return matches
}

// Inline resolves the properties simple top-level rules give an element.
// Higher specificity wins, then later rules.
func (s *Stylesheet) Inline(name string, classes []string) map[string]string {
	var rules []*Rule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector.Matches(name, classes) {
			rules = append(rules, item.Rule)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Selector.Specificity() < rules[j].Selector.Specificity()
	})
	out := make(map[string]string)
	for _, r := range rules {
		for k, v := range r.Properties {
			out[k] = v.Raw
		}
	}
	return out
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Property order within a rule is sorted alphabetically for deterministic output.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, item := range s.Items {
		var n int
		var err error

		switch {
		case item.Import != nil:
			n, err = fmt.Fprintf(w, "@import url(\"%s\");\n", cssEscapeDoubleQuoted(*item.Import))
		case item.FontFace != nil:
			n, err = writeFontFace(w, item.FontFace)
		case item.MediaBlock != nil:
			n, err = writeMediaBlock(w, item.MediaBlock)
		case item.Rule != nil:
			n, err = writeRule(w, "", item.Rule)
		}

		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single CSS rule on one line.
func writeRule(w io.Writer, indent string, rule *Rule) (int, error) {
	names := make([]string, 0, len(rule.Properties))
	for name := range rule.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString(rule.Selector.Raw)
	sb.WriteString(" {")
	for _, name := range names {
		fmt.Fprintf(&sb, " %s: %s;", name, rule.Properties[name].Raw)
	}
	sb.WriteString(" }\n")
	return io.WriteString(w, sb.String())
}

// writeFontFace writes an @font-face block to w.
func writeFontFace(w io.Writer, ff *FontFace) (int, error) {
	var sb strings.Builder
	sb.WriteString("@font-face {")
	if ff.Family != "" {
		fmt.Fprintf(&sb, " font-family: \"%s\";", cssEscapeDoubleQuoted(ff.Family))
	}
	if ff.Src != "" {
		fmt.Fprintf(&sb, " src: %s;", ff.Src)
	}
	if ff.Style != "" {
		fmt.Fprintf(&sb, " font-style: %s;", ff.Style)
	}
	if ff.Weight != "" {
		fmt.Fprintf(&sb, " font-weight: %s;", ff.Weight)
	}
	sb.WriteString(" }\n")
	return io.WriteString(w, sb.String())
}

// writeMediaBlock writes an @media block to w.
func writeMediaBlock(w io.Writer, mb *MediaBlock) (int, error) {
	total, err := fmt.Fprintf(w, "@media %s {\n", mb.Query)
	if err != nil {
		return total, err
	}
	for i := range mb.Rules {
		n, err := writeRule(w, "  ", &mb.Rules[i])
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := fmt.Fprint(w, "}\n")
	return total + n, err
}
