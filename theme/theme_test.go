package theme

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"svgdx/common"
	"svgdx/doc"
	"svgdx/element"
)

func selectors(s *Styles) []string {
	var out []string
	for _, item := range s.Auto.Items {
		out = append(out, item.Rule.Selector.Raw)
	}
	return out
}

func TestBuildObserved(t *testing.T) {
	s, err := Build(doc.DefaultOptions(), []string{"rect", "text"}, []string{"d-text", "d-arrow"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	got := strings.Join(selectors(s), ",")
	want := "rect,text,text.d-text,.d-arrow,.d-arrow-head"
	if got != want {
		t.Errorf("selectors = %s, want %s", got, want)
	}

	events := s.Events()
	if len(events) != 8 {
		t.Fatalf("Events() returned %d events, want 8", len(events))
	}
	if events[0].Element.Name != "style" || events[3].Element.Name != "defs" || events[4].Element.ID() != "d-arrow" {
		t.Errorf("unexpected event layout: %v", events)
	}
	if !strings.Contains(events[1].Text, "rect { fill: white; stroke: black; stroke-width: 0.5; }") {
		t.Errorf("style text = %q", events[1].Text)
	}
	if events[5].Kind != element.EventEmpty || !events[5].Element.HasClass(arrowHeadClass) {
		t.Errorf("arrow head = %v", events[5])
	}
}

func TestBuildThemes(t *testing.T) {
	tests := []struct {
		theme common.Theme
		width string
		bg    bool
	}{
		{common.ThemeDefault, "0.5", false},
		{common.ThemeBold, "1", false},
		{common.ThemeFine, "0.2", false},
		{common.ThemeDark, "0.5", true},
		{common.ThemeLight, "0.5", true},
	}
	for _, tt := range tests {
		t.Run(tt.theme.String(), func(t *testing.T) {
			opts := doc.DefaultOptions()
			opts.Theme = tt.theme
			s, err := Build(opts, []string{"line"}, nil, nil)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			lines := s.Auto.RulesBySelector("line")
			if len(lines) != 1 {
				t.Fatalf("line rules = %d, want 1", len(lines))
			}
			if w, _ := lines[0].GetProperty("stroke-width"); w.Raw != tt.width {
				t.Errorf("stroke-width = %s, want %s", w.Raw, tt.width)
			}
			if got := len(s.Auto.RulesBySelector("svg")) == 1; got != tt.bg {
				t.Errorf("background rule = %v, want %v", got, tt.bg)
			}
		})
	}
}

func TestBuildBackgroundOverride(t *testing.T) {
	opts := doc.DefaultOptions()
	opts.Theme = common.ThemeDark
	opts.Background = "none"
	s, err := Build(opts, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if s.Auto.Len() != 0 {
		t.Errorf("expected no rules, got %v", selectors(s))
	}

	opts.Background = "yellow"
	s, _ = Build(opts, nil, nil, nil)
	if r := s.Auto.RulesBySelector("svg"); len(r) != 1 || r[0].Properties["background"].Raw != "yellow" {
		t.Errorf("svg rules = %v", r)
	}
}

func TestColorClasses(t *testing.T) {
	s, err := Build(doc.DefaultOptions(), nil, []string{"d-red", "d-fill-blue", "d-nosuch"}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := strings.Join(selectors(s), ","); got != ".d-red,.d-fill-blue" {
		t.Errorf("selectors = %s", got)
	}
}

func TestInlineMode(t *testing.T) {
	opts := doc.DefaultOptions()
	opts.AutoStyleMode = common.AutoStyleModeInline
	opts.Background = "white"
	s, err := Build(opts, []string{"rect", "svg"}, []string{"d-thick"}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(s.Events()) != 0 {
		t.Errorf("Events() = %v, want none in inline mode", s.Events())
	}

	rect := element.New("rect", element.Attr{Name: "fill", Value: "red"}, element.Attr{Name: "class", Value: "d-thick"})
	s.Apply(rect)
	want := map[string]string{"fill": "red", "stroke": "black", "stroke-width": "1"}
	for k, v := range want {
		if got := rect.Attrs.Value(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}

	root := element.New("svg", element.Attr{Name: "style", Value: "border: 1px"})
	s.Apply(root)
	if got := root.Attrs.Value("style"); got != "background: white; border: 1px" {
		t.Errorf("style = %q", got)
	}
	if root.Has("background") {
		t.Error("background must not become an attribute")
	}
}

func TestApplyCSSModeNoop(t *testing.T) {
	s, _ := Build(doc.DefaultOptions(), []string{"rect"}, nil, nil)
	rect := element.New("rect")
	s.Apply(rect)
	if rect.Attrs.Len() != 0 {
		t.Errorf("Apply() changed element in css mode: %s", rect)
	}
}

func TestNoAutoStyles(t *testing.T) {
	for _, opts := range []func(*doc.Options){
		func(o *doc.Options) { o.AddAutoStyles = false },
		func(o *doc.Options) { o.AutoStyleMode = common.AutoStyleModeNone },
	} {
		o := doc.DefaultOptions()
		opts(&o)
		o.UserStylesheet = "rect { fill: pink; }"
		s, err := Build(o, []string{"rect"}, []string{"d-arrow"}, nil)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		events := s.Events()
		if s.Auto.Len() != 0 || len(events) != 3 {
			t.Fatalf("auto rules = %d, events = %d", s.Auto.Len(), len(events))
		}
		if events[1].Text != "\nrect { fill: pink; }\n" {
			t.Errorf("style text = %q", events[1].Text)
		}
	}
}

func TestUserStylesheetAppended(t *testing.T) {
	opts := doc.DefaultOptions()
	opts.UserStylesheet = "rect { fill: pink; }"
	s, err := Build(opts, []string{"rect"}, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	text := s.Events()[1].Text
	auto := strings.Index(text, "fill: white")
	user := strings.Index(text, "fill: pink")
	if auto < 0 || user < auto {
		t.Errorf("user rules must follow automatic rules:\n%s", text)
	}
}

func TestUserStylesheetInvalid(t *testing.T) {
	opts := doc.DefaultOptions()
	opts.UserStylesheet = "rect { fill red; }"
	if _, err := Build(opts, nil, nil, nil); err == nil {
		t.Error("Build() accepted an invalid stylesheet")
	}
}
