package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readReport(t *testing.T, name string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer r.Close()

	out := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Close(t *testing.T) {
	tmpDir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}

	stored := filepath.Join(tmpDir, "result.svg")
	if err := os.WriteFile(stored, []byte("early"), 0644); err != nil {
		t.Fatal(err)
	}
	r.Store("result-2.svg", stored)
	r.Store("result-2.svg", stored)
	r.Store("gone.svg", filepath.Join(tmpDir, "gone.svg"))
	r.Store("dir", tmpDir)
	data := []byte("tree")
	r.StoreData("tree-10.txt", data)
	data[0] = 'T'

	// stored files are read at close time
	if err := os.WriteFile(stored, []byte("final"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := readReport(t, conf.Destination)
	if got["result-2.svg"] != "final" {
		t.Errorf("result-2.svg = %q, want %q", got["result-2.svg"], "final")
	}
	if got["tree-10.txt"] != "tree" {
		t.Errorf("tree-10.txt = %q, want %q", got["tree-10.txt"], "tree")
	}
	for _, name := range []string{"gone.svg", "dir"} {
		if _, ok := got[name]; ok {
			t.Errorf("report contains %s, want it listed in MANIFEST only", name)
		}
	}

	manifest := got["MANIFEST"]
	lines := strings.Split(strings.TrimSpace(manifest), "\n")
	if len(lines) != 4 {
		t.Fatalf("MANIFEST has %d lines, want 4:\n%s", len(lines), manifest)
	}
	order := []string{"dir\tskipped", "gone.svg\tmissing", "result-2.svg\t5\t", "tree-10.txt\t4\t-"}
	for i, want := range order {
		if !strings.Contains(lines[i], want) {
			t.Errorf("MANIFEST line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
}

func TestReport_StoreConflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("a", "/tmp/one")

	defer func() {
		if recover() == nil {
			t.Error("Store() with a different path did not panic")
		}
	}()
	r.Store("a", "/tmp/two")
}

func TestReport_StoreDataConflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("a", nil)

	defer func() {
		if recover() == nil {
			t.Error("StoreData() with a used name did not panic")
		}
	}()
	r.StoreData("a", []byte("again"))
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("c", nil)
	if r.Name() != "" {
		t.Errorf("Name() = %q, want empty", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report error = %v", err)
	}
}

func TestReport_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close() with nil file error = %v", err)
	}
}
