package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"svgdx/config"
	"svgdx/state"
)

const sampleSource = `<?xml version="1.0" encoding="UTF-8"?>
<svg>
  <title>Sample</title>
  <rect id="a" wh="10 5"/>
  <rect id="b" xy="^|h 5" wh="10 5"/>
  <line start="#a" end="#b"/>
</svg>
`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	env.RunID = "test-run"
	return ctx, env
}

func newTestRunner(t *testing.T, dst string) *runner {
	return &runner{dst: dst, log: zaptest.NewLogger(t)}
}

func encodeSource(t *testing.T, data []byte, enc srcEncoding) []byte {
	t.Helper()
	var encoder transform.Transformer
	switch enc {
	case encUnknown:
		return data
	case encUTF8:
		return append([]byte{0xEF, 0xBB, 0xBF}, data...)
	case encUTF16BigEndian:
		encoder = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	case encUTF16LittleEndian:
		encoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	case encUTF32BigEndian:
		encoder = utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewEncoder()
	case encUTF32LittleEndian:
		encoder = utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewEncoder()
	default:
		t.Fatalf("unsupported encoding: %v", enc)
	}
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, encoder)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("finalize encoded sample: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output %s: %v", path, err)
	}
	return string(data)
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	p := newTestRunner(t, t.TempDir())

	err := p.process(ctx, "/nonexistent/path/file.svg")
	if err == nil {
		t.Fatal("Expected error for non-existent path, got nil")
	}
	if !strings.Contains(err.Error(), "input source was not found") {
		t.Errorf("Expected error containing 'input source was not found', got: %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	tmpDir := t.TempDir()
	p := newTestRunner(t, tmpDir)
	if err := p.process(cancelCtx, tmpDir); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "flow.xml")
	writeFile(t, src, []byte(sampleSource))

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.count != 1 || p.failed != 0 {
		t.Errorf("count = %d, failed = %d, want 1, 0", p.count, p.failed)
	}

	out := readOutput(t, filepath.Join(dstDir, "flow.svg"))
	for _, want := range []string{`xmlns="http://www.w3.org/2000/svg"`, `id="b"`, `x="15"`, `<line`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProcess_Encodings(t *testing.T) {
	for _, enc := range []srcEncoding{encUnknown, encUTF8, encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian} {
		t.Run(enc.String(), func(t *testing.T) {
			ctx, _ := setupTestEnv(t)
			srcDir, dstDir := t.TempDir(), t.TempDir()
			src := filepath.Join(srcDir, "enc.xml")
			writeFile(t, src, encodeSource(t, []byte(sampleSource), enc))

			p := newTestRunner(t, dstDir)
			if err := p.process(ctx, src); err != nil {
				t.Fatalf("process() error = %v", err)
			}
			if p.failed != 0 {
				t.Fatalf("failed = %d, want 0", p.failed)
			}
			if out := readOutput(t, filepath.Join(dstDir, "enc.svg")); !strings.Contains(out, "Sample") {
				t.Errorf("output lost its title:\n%s", out)
			}
		})
	}
}

func TestProcess_Directory(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcDir, "one.svg"), []byte(sampleSource))
	writeFile(t, filepath.Join(srcDir, "nested", "two.xml"), []byte(sampleSource))
	writeFile(t, filepath.Join(srcDir, "notes.txt"), []byte("not a diagram"))
	writeFile(t, filepath.Join(srcDir, "other.xml"), []byte("<root/>"))

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, srcDir); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.count != 2 {
		t.Errorf("count = %d, want 2", p.count)
	}
	readOutput(t, filepath.Join(dstDir, "one.svg"))
	readOutput(t, filepath.Join(dstDir, "nested", "two.svg"))
}

func TestProcess_DirectoryNoDirs(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcDir, "a", "b", "deep.svg"), []byte(sampleSource))

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, srcDir); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	readOutput(t, filepath.Join(dstDir, "deep.svg"))
}

func TestProcess_DirectoryWithTail(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir := t.TempDir()

	p := newTestRunner(t, t.TempDir())
	err := p.process(ctx, filepath.Join(srcDir, "missing", "file.svg"))
	if err == nil {
		t.Fatal("Expected error for path below a directory, got nil")
	}
}

func TestProcess_Archive(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	arc := filepath.Join(srcDir, "diagrams.zip")
	writeZip(t, arc, map[string]string{
		"figs/fig1.svg": sampleSource,
		"figs/fig2.svg": sampleSource,
		"readme.txt":    "text",
	})

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, arc); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.count != 2 {
		t.Errorf("count = %d, want 2", p.count)
	}
	readOutput(t, filepath.Join(dstDir, "figs", "fig1.svg"))
	readOutput(t, filepath.Join(dstDir, "figs", "fig2.svg"))
}

func TestProcess_ArchiveWithPath(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	arc := filepath.Join(srcDir, "diagrams.zip")
	writeZip(t, arc, map[string]string{
		"keep/fig.svg": sampleSource,
		"skip/fig.svg": sampleSource,
	})

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, filepath.Join(arc, "keep")); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.count != 1 {
		t.Errorf("count = %d, want 1", p.count)
	}
	readOutput(t, filepath.Join(dstDir, "keep", "fig.svg"))
	if _, err := os.Stat(filepath.Join(dstDir, "skip")); !os.IsNotExist(err) {
		t.Errorf("entries outside the requested path were processed")
	}
}

func TestProcess_NotASource(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, src, []byte("plain text"))

	p := newTestRunner(t, t.TempDir())
	err := p.process(ctx, src)
	if err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Errorf("process() error = %v, want not recognized", err)
	}
}

func TestProcess_EmptyDirectory(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	p := newTestRunner(t, t.TempDir())
	if err := p.process(ctx, t.TempDir()); err != nil {
		t.Errorf("process() error = %v", err)
	}
	if p.count != 0 {
		t.Errorf("count = %d, want 0", p.count)
	}
}

func TestProcess_TransformError(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcDir, "bad.svg"), []byte(`<svg><rect xy="#missing" wh="1"/></svg>`))
	writeFile(t, filepath.Join(srcDir, "good.svg"), []byte(sampleSource))

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, srcDir); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.count != 2 || p.failed != 1 {
		t.Errorf("count = %d, failed = %d, want 2, 1", p.count, p.failed)
	}
	if _, err := os.Stat(filepath.Join(dstDir, "bad.svg")); !os.IsNotExist(err) {
		t.Error("failed transform must not produce output")
	}
	readOutput(t, filepath.Join(dstDir, "good.svg"))
}

func TestProcess_Overwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "flow.svg")
	writeFile(t, src, []byte(sampleSource))
	writeFile(t, filepath.Join(dstDir, "flow.svg"), []byte("old"))

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.failed != 1 {
		t.Errorf("failed = %d, want 1 without overwrite", p.failed)
	}
	if out := readOutput(t, filepath.Join(dstDir, "flow.svg")); out != "old" {
		t.Errorf("existing output replaced without overwrite")
	}

	env.Overwrite = true
	p = newTestRunner(t, dstDir)
	if err := p.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.failed != 0 {
		t.Errorf("failed = %d, want 0 with overwrite", p.failed)
	}
	if out := readOutput(t, filepath.Join(dstDir, "flow.svg")); out == "old" {
		t.Errorf("existing output kept with overwrite")
	}
}

func TestProcess_SourceProtected(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Overwrite = true
	dir := t.TempDir()
	src := filepath.Join(dir, "self.svg")
	writeFile(t, src, []byte(sampleSource))

	p := newTestRunner(t, dir)
	if err := p.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.failed != 1 {
		t.Errorf("failed = %d, want 1", p.failed)
	}
	if out := readOutput(t, src); out != sampleSource {
		t.Error("source was replaced by its output")
	}
}

func TestProcess_PNG(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Output.PNG.Enable = true
	env.Cfg.Output.PNG.Width = 50
	env.Cfg.Transform.AddAutoStyles = false
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "flow.xml")
	writeFile(t, src, []byte(sampleSource))

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if p.failed != 0 {
		t.Fatalf("failed = %d, want 0", p.failed)
	}
	data, err := os.ReadFile(filepath.Join(dstDir, "flow.png"))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("preview is not a PNG image")
	}
}

func TestProcess_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	rc := config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	rpt, err := rc.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Rpt = rpt

	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "flow.svg")
	writeFile(t, src, []byte(sampleSource))

	p := newTestRunner(t, dstDir)
	if err := p.process(ctx, src); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := zip.OpenReader(rc.Destination)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer r.Close()
	found := make(map[string]bool)
	for _, f := range r.File {
		found[f.Name] = true
	}
	for _, want := range []string{"MANIFEST", "source-001-flow.svg", "tree-001-flow.svg.txt", "result-001-flow.svg"} {
		if !found[want] {
			t.Errorf("report misses %s, has %v", want, found)
		}
	}
}

func TestReadSource_DropsEncodingDecl(t *testing.T) {
	src := encodeSource(t, []byte(`<?xml version="1.0" encoding="UTF-16"?><svg/>`), encUTF16LittleEndian)
	data, err := readSource(bytes.NewReader(src), encUTF16LittleEndian)
	if err != nil {
		t.Fatalf("readSource() error = %v", err)
	}
	if got, want := string(data), `<?xml version="1.0"?><svg/>`; got != want {
		t.Errorf("readSource() = %q, want %q", got, want)
	}
}
