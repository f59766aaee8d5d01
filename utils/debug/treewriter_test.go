package debug

import (
	"strings"
	"testing"

	"svgdx/element"
)

func TestNewTreeWriter(t *testing.T) {
	tw := NewTreeWriter()
	if tw == nil {
		t.Fatal("NewTreeWriter() returned nil")
	}
	if tw.w == nil {
		t.Error("TreeWriter builder is nil")
	}
}

func TestTreeWriter_String(t *testing.T) {
	tw := NewTreeWriter()
	if tw.String() != "" {
		t.Error("Expected empty string from new TreeWriter")
	}

	tw.w.WriteString("test content")
	if tw.String() != "test content" {
		t.Errorf("String() = %q, want %q", tw.String(), "test content")
	}
}

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{
			name:   "no depth",
			depth:  0,
			format: "test",
			args:   nil,
			want:   "test\n",
		},
		{
			name:   "depth 1",
			depth:  1,
			format: "indented",
			args:   nil,
			want:   "  indented\n",
		},
		{
			name:   "depth 2",
			depth:  2,
			format: "double indent",
			args:   nil,
			want:   "    double indent\n",
		},
		{
			name:   "with formatting",
			depth:  1,
			format: "value: %d",
			args:   []any{42},
			want:   "  value: 42\n",
		},
		{
			name:   "multiple args",
			depth:  0,
			format: "%s = %d",
			args:   []any{"count", 5},
			want:   "count = 5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			got := tw.String()
			if got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{
			name:  "no depth empty value",
			depth: 0,
			label: "field",
			value: "",
			want:  "field: \n",
		},
		{
			name:  "no depth with value",
			depth: 0,
			label: "text",
			value: "hello world",
			want:  "text: \"hello world\"\n",
		},
		{
			name:  "depth 1 with value",
			depth: 1,
			label: "content",
			value: "test",
			want:  "  content: \"test\"\n",
		},
		{
			name:  "depth 2 with value",
			depth: 2,
			label: "nested",
			value: "data",
			want:  "    nested: \"data\"\n",
		},
		{
			name:  "value with quotes",
			depth: 0,
			label: "quoted",
			value: "he said \"hello\"",
			want:  "quoted: \"he said \\\"hello\\\"\"\n",
		},
		{
			name:  "value with newline",
			depth: 0,
			label: "multiline",
			value: "line1\nline2",
			want:  "multiline: \"line1\\nline2\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			got := tw.String()
			if got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "simple text",
			input: "hello",
			want:  `"hello"`,
		},
		{
			name:  "with spaces",
			input: "hello world",
			want:  `"hello world"`,
		},
		{
			name:  "with quotes",
			input: `say "hi"`,
			want:  `"say \"hi\""`,
		},
		{
			name:  "with newline",
			input: "line1\nline2",
			want:  `"line1\nline2"`,
		},
		{
			name:  "with tab",
			input: "col1\tcol2",
			want:  `"col1\tcol2"`,
		},
		{
			name:  "with backslash",
			input: `path\to\file`,
			want:  `"path\\to\\file"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeText(tt.input)
			if got != tt.want {
				t.Errorf("encodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_Nodes(t *testing.T) {
	rect := element.New("rect",
		element.Attr{Name: "id", Value: "r"},
		element.Attr{Name: "class", Value: "d-red"},
		element.Attr{Name: "width", Value: "4"},
	)
	g := element.New("g")
	nodes := []*element.Node{{
		Kind:    element.EventStart,
		Element: g,
		Children: []*element.Node{
			{Kind: element.EventText, Text: "\n  "},
			{Kind: element.EventStart, Element: rect, Empty: true},
			{Kind: element.EventComment, Text: " note "},
		},
	}}

	tw := NewTreeWriter()
	tw.Nodes(0, nodes)

	want := "g\n  rect\n    @id: \"r\"\n    @class: \"d-red\"\n    @width: \"4\"\n  comment: \" note \"\n"
	if got := tw.String(); got != want {
		t.Errorf("Nodes():\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEvents(t *testing.T) {
	svg := element.New("svg")
	text := element.New("text", element.Attr{Name: "x", Value: "1"})
	events := []element.Event{
		element.Start(svg),
		element.Start(text),
		element.Text("hello"),
		element.End(text),
		element.End(svg),
	}

	got := Events(events)
	want := "svg\n  text\n    @x: \"1\"\n    text: \"hello\"\n"
	if got != want {
		t.Errorf("Events():\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEvents_Unbalanced(t *testing.T) {
	got := Events([]element.Event{element.Start(element.New("svg"))})
	if !strings.HasPrefix(got, "unbalanced stream: ") {
		t.Errorf("Events() = %q, want unbalanced stream report", got)
	}
	if !strings.Contains(got, "never closed") {
		t.Errorf("Events() = %q, want the unclosed element named", got)
	}
}
