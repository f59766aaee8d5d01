package archive

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type entry struct {
	name    string
	content string
}

func makeZip(t *testing.T, entries ...entry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return zipPath
}

func names(t *testing.T, zipPath, prefix string) []string {
	t.Helper()
	var visited []string
	err := Walk(context.Background(), zipPath, prefix, func(archive string, file *zip.File) error {
		if archive != zipPath {
			t.Errorf("archive = %s, want %s", archive, zipPath)
		}
		visited = append(visited, file.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return visited
}

func TestWalk_Prefix(t *testing.T) {
	zipPath := makeZip(t,
		entry{"diagrams/flow.svg", "<svg/>"},
		entry{"diagrams/state.svg", "<svg/>"},
		entry{"styles/base.css", "rect {}"},
		entry{"readme.txt", "text"},
	)

	tests := []struct {
		prefix string
		want   int
	}{
		{"diagrams/", 2},
		{"styles/", 1},
		{"", 4},
		{"missing/", 0},
		{"Diagrams/", 0},
	}
	for _, tt := range tests {
		if got := len(names(t, zipPath, tt.prefix)); got != tt.want {
			t.Errorf("Walk(%q) visited %d files, want %d", tt.prefix, got, tt.want)
		}
	}
}

func TestWalk_NaturalOrder(t *testing.T) {
	zipPath := makeZip(t,
		entry{"fig10.svg", ""},
		entry{"fig2.svg", ""},
		entry{"fig1.svg", ""},
	)
	got := names(t, zipPath, "")
	want := []string{"fig1.svg", "fig2.svg", "fig10.svg"}
	if len(got) != len(want) {
		t.Fatalf("visited = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visited[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestWalk_SkipsDirectories(t *testing.T) {
	zipPath := makeZip(t,
		entry{"dir/", ""},
		entry{"dir/a.svg", "<svg/>"},
	)
	got := names(t, zipPath, "")
	if len(got) != 1 || got[0] != "dir/a.svg" {
		t.Errorf("visited = %v, want [dir/a.svg]", got)
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.zip")
	if err := os.WriteFile(bad, []byte("not a zip"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := Walk(context.Background(), bad, "", func(string, *zip.File) error { return nil }); err == nil {
		t.Error("Walk() on invalid archive should return error")
	}
	if err := Walk(context.Background(), filepath.Join(t.TempDir(), "absent.zip"), "", func(string, *zip.File) error { return nil }); err == nil {
		t.Error("Walk() on missing archive should return error")
	}
}

func TestWalk_UnsafePath(t *testing.T) {
	zipPath := makeZip(t, entry{"../escape.svg", "<svg/>"})
	err := Walk(context.Background(), zipPath, "", func(string, *zip.File) error {
		t.Error("walkFn must not be called for unsafe entries")
		return nil
	})
	if err == nil {
		t.Error("Walk() should reject path traversal")
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := makeZip(t, entry{"a.svg", ""}, entry{"b.svg", ""}, entry{"c.svg", ""})
	stop := errors.New("stop")
	count := 0
	err := Walk(context.Background(), zipPath, "", func(string, *zip.File) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if count != 2 {
		t.Errorf("visited %d files, want 2", count)
	}
}

func TestWalk_Cancelled(t *testing.T) {
	zipPath := makeZip(t, entry{"a.svg", ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Walk(ctx, zipPath, "", func(string, *zip.File) error {
		t.Error("walkFn must not be called after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Walk() error = %v, want %v", err, context.Canceled)
	}
}

func TestWalk_FileContent(t *testing.T) {
	zipPath := makeZip(t, entry{"a.svg", `<svg><rect wh="4"/></svg>`})
	err := Walk(context.Background(), zipPath, "", func(_ string, file *zip.File) error {
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if string(data) != `<svg><rect wh="4"/></svg>` {
			t.Errorf("content = %q", data)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a/b.svg", true},
		{"a..b.svg", true},
		{"/abs.svg", false},
		{`\abs.svg`, false},
		{"a/../../b.svg", false},
		{`a\..\b.svg`, false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
