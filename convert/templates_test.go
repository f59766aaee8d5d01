package convert

import (
	"path/filepath"
	"strings"
	"testing"

	"svgdx/config"
)

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"simple text", "simple-text", "simple-text"},
		{"context", "{{ .Context }}", "name_template"},
		{"name", "{{ .Name }}", "chart"},
		{"source file", "{{ .SourceFile }}", "figs/flow/chart.xml"},
		{"source dir", "{{ .SourceDir }}", "figs/flow"},
		{"index", "{{ .Index }}", "7"},
		{"title", "{{ .Title }}", "My Chart"},
		{"size", "{{ .Width }}x{{ .Height }}", "40x20"},
		{"run id", "{{ .RunID }}", "run-1"},
		{"sprig upper", "{{ .Name | upper }}", "CHART"},
		{"sprig printf", `{{ printf "%03d" .Index }}-{{ .Name }}`, "007-chart"},
		{"sprig replace", `{{ .Title | replace " " "_" }}`, "My_Chart"},
		{"conditional", `{{ if .Title }}{{ .Title }}{{ else }}{{ .Name }}{{ end }}`, "My Chart"},
	}
	d := newTestDocument(t, filepath.Join("figs", "flow", "chart.xml"), testOutputBody)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(d, config.NameTemplateFieldName, tt.template)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplate_NoTitle(t *testing.T) {
	d := newTestDocument(t, "chart.svg", `<svg><rect width="1" height="1"/></svg>`)

	got, err := expandTemplate(d, config.NameTemplateFieldName, `{{ if .Title }}{{ .Title }}{{ else }}{{ .Name }}{{ end }}|{{ .SourceDir }}|{{ .Width }}`)
	if err != nil {
		t.Fatalf("expandTemplate() error = %v", err)
	}
	if got != "chart||" {
		t.Errorf("expandTemplate() = %q, want %q", got, "chart||")
	}
}

func TestExpandTemplate_InvalidTemplate(t *testing.T) {
	d := newTestDocument(t, "chart.svg", testOutputBody)

	_, err := expandTemplate(d, config.NameTemplateFieldName, "{{ .Name ")
	if err == nil {
		t.Fatal("expandTemplate() expected error for invalid template")
	}
	if !strings.Contains(err.Error(), "name_template") {
		t.Errorf("expandTemplate() error = %v, want field name mentioned", err)
	}
}

func TestExpandTemplate_ExecutionError(t *testing.T) {
	d := newTestDocument(t, "chart.svg", testOutputBody)

	if _, err := expandTemplate(d, config.NameTemplateFieldName, "{{ .Unknown }}"); err == nil {
		t.Error("expandTemplate() expected error for unknown field")
	}
}

func TestDocument_Title(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`<svg><title> Padded </title></svg>`, "Padded"},
		{`<svg><g><title>Nested</title></g><title>Second</title></svg>`, "Nested"},
		{`<svg><text>Not a title</text></svg>`, ""},
	}
	for _, tt := range tests {
		d := newTestDocument(t, "a.svg", tt.body)
		if got := d.title(); got != tt.want {
			t.Errorf("title() = %q, want %q", got, tt.want)
		}
	}
}
