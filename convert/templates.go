package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"svgdx/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Name       string
	SourceFile string
	SourceDir  string
	Index      int
	Title      string
	Width      string
	Height     string
	RunID      string
}

func newValues(name config.TemplateFieldName, d *document) Values {
	src := filepath.ToSlash(d.src)
	dir := filepath.ToSlash(filepath.Dir(d.src))
	if dir == "." {
		dir = ""
	}
	return Values{
		Context:    string(name),
		Name:       strings.TrimSuffix(filepath.Base(d.src), filepath.Ext(d.src)),
		SourceFile: src,
		SourceDir:  dir,
		Index:      d.index,
		Title:      d.title(),
		Width:      d.rootAttr("width"),
		Height:     d.rootAttr("height"),
		RunID:      d.runID,
	}
}

func expandTemplate(d *document, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, newValues(name, d)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
