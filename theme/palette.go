package theme

import (
	"svgdx/common"
	"svgdx/geom"
)

type palette struct {
	stroke      string
	fill        string
	text        string
	background  string
	width       float64
	fillOpacity string
}

var palettes = map[common.Theme]palette{
	common.ThemeDefault: {stroke: "black", fill: "white", text: "black", background: "none", width: 0.5},
	common.ThemeLight:   {stroke: "#333", fill: "#f8f8f8", text: "#222", background: "white", width: 0.5},
	common.ThemeDark:    {stroke: "#ddd", fill: "#222", text: "#eee", background: "#111", width: 0.5},
	common.ThemeBold:    {stroke: "black", fill: "white", text: "black", background: "none", width: 1},
	common.ThemeFine:    {stroke: "black", fill: "white", text: "black", background: "none", width: 0.2},
	common.ThemeGlass:   {stroke: "#246", fill: "#e0f0ff", text: "#024", background: "none", width: 0.5, fillOpacity: "0.7"},
}

func paletteFor(t common.Theme) palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[common.ThemeDefault]
}

// colors usable in d-<color> (stroke), d-fill-<color> and d-text-<color> classes.
var colors = []string{
	"black", "white", "grey", "gray", "silver", "red", "maroon", "orange",
	"yellow", "gold", "olive", "lime", "green", "teal", "cyan", "aqua",
	"blue", "navy", "purple", "magenta", "pink", "brown",
}

// rule is an automatic rule emitted when its trigger was observed. Triggers
// are element names, or class names with a leading dot.
type rule struct {
	when     string
	selector string
	decls    []string
}

func num(v float64) string { return geom.Fstr(v) }

func rules(pal palette, fontSize float64, fontFamily string) []rule {
	closed := []string{"stroke", pal.stroke, "stroke-width", num(pal.width), "fill", pal.fill}
	if pal.fillOpacity != "" {
		closed = append(closed, "fill-opacity", pal.fillOpacity)
	}
	open := []string{"stroke", pal.stroke, "stroke-width", num(pal.width), "fill", "none"}

	out := []rule{
		{"rect", "rect", closed},
		{"circle", "circle", closed},
		{"ellipse", "ellipse", closed},
		{"polygon", "polygon", closed},
		{"line", "line", open},
		{"polyline", "polyline", open},
		{"path", "path", open},
		{"text", "text", []string{
			"fill", pal.text, "stroke", "none",
			"font-family", fontFamily, "font-size", num(fontSize),
		}},
		{".d-text", "text.d-text", []string{"text-anchor", "middle", "dominant-baseline", "central"}},
		{".d-text-top", "text.d-text-top", []string{"dominant-baseline", "text-before-edge"}},
		{".d-text-bottom", "text.d-text-bottom", []string{"dominant-baseline", "text-after-edge"}},
		{".d-text-left", "text.d-text-left", []string{"text-anchor", "start"}},
		{".d-text-right", "text.d-text-right", []string{"text-anchor", "end"}},
		{".d-text-small", ".d-text-small", []string{"font-size", num(fontSize * 2 / 3)}},
		{".d-text-large", ".d-text-large", []string{"font-size", num(fontSize * 1.5)}},
		{".d-text-mono", ".d-text-mono", []string{"font-family", "monospace"}},
		{".d-bold", ".d-bold", []string{"font-weight", "bold"}},
		{".d-italic", ".d-italic", []string{"font-style", "italic"}},
		{".d-thin", ".d-thin", []string{"stroke-width", num(pal.width / 2)}},
		{".d-thick", ".d-thick", []string{"stroke-width", num(pal.width * 2)}},
		{".d-dash", ".d-dash", []string{"stroke-dasharray", num(pal.width*4) + " " + num(pal.width*2)}},
		{".d-dot", ".d-dot", []string{"stroke-dasharray", num(pal.width) + " " + num(pal.width*2)}},
		{".d-nofill", ".d-nofill", []string{"fill", "none"}},
		{".d-nostroke", ".d-nostroke", []string{"stroke", "none"}},
		{".d-hidden", ".d-hidden", []string{"visibility", "hidden"}},
		{".d-arrow", ".d-arrow", []string{"marker-end", "url(#d-arrow)"}},
		{".d-biarrow", ".d-biarrow", []string{"marker-start", "url(#d-arrow)", "marker-end", "url(#d-arrow)"}},
		{"#d-arrow", "." + arrowHeadClass, []string{"fill", pal.stroke, "stroke", "none"}},
	}
	for _, c := range colors {
		out = append(out,
			rule{".d-" + c, ".d-" + c, []string{"stroke", c}},
			rule{".d-fill-" + c, ".d-fill-" + c, []string{"fill", c}},
			rule{".d-text-" + c, "text.d-text-" + c, []string{"fill", c}},
		)
	}
	return out
}
