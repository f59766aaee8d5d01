package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"svgdx/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty report. When destination cannot be
// created the report goes to a temporary file, see Report.Name.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	// origin is the file on disk, empty for in-memory data
	origin string
	data   []byte
	stamp  time.Time
}

// Report accumulates sources, intermediate dumps, outputs and logs of a run
// and packs them into a single zip archive when closed. All methods accept
// nil receiver, which means no report was requested.
// NOTE: not to be used concurrently!
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close writes the archive and closes the report file.
func (r *Report) Close() (err error) {
	if r == nil || r.file == nil {
		return nil
	}
	defer func() {
		err = multierr.Append(err, r.file.Close())
	}()
	return r.finalize()
}

// Name returns absolute name of the report file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store records a file to be read into the archive on Close, so the archive
// gets its content at the end of the run. Storing a different file under a
// used name is a programming error.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if old, exists := r.entries[name]; exists && old.origin != path {
		panic(fmt.Sprintf("attempt to overwrite report entry [%s]: was %q, now %q", name, old.origin, path))
	}
	r.entries[name] = entry{origin: path}
}

// StoreData puts data into the archive under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("attempt to overwrite report entry [%s]", name))
	}
	r.entries[name] = entry{data: slices.Clone(data), stamp: time.Now()}
}

// finalize writes MANIFEST followed by every entry in natural name order.
// Files which are gone or are not regular by now are listed in MANIFEST only.
func (r *Report) finalize() (err error) {
	arc := zip.NewWriter(r.file)
	defer func() {
		err = multierr.Append(err, arc.Close())
	}()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case natural.Less(a, b):
			return -1
		}
		return 1
	})

	now := time.Now()
	manifest := new(bytes.Buffer)
	present := make([]string, 0, len(names))
	for _, name := range names {
		e := r.entries[name]
		origin, size := "-", int64(len(e.data))
		if len(e.origin) > 0 {
			origin = e.origin
			info, err := os.Stat(e.origin)
			switch {
			case err != nil:
				fmt.Fprintf(manifest, "%s\t%s\tmissing\t%s\n", now.UTC().Format(time.UnixDate), name, origin)
				continue
			case !info.Mode().IsRegular():
				fmt.Fprintf(manifest, "%s\t%s\tskipped\t%s\n", now.UTC().Format(time.UnixDate), name, origin)
				continue
			}
			e.stamp, size = info.ModTime(), info.Size()
			r.entries[name] = e
		}
		fmt.Fprintf(manifest, "%s\t%s\t%d\t%s\n", e.stamp.UTC().Format(time.UnixDate), name, size, origin)
		present = append(present, name)
	}

	if err := saveFile(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}
	for _, name := range present {
		if err := r.saveEntry(arc, name); err != nil {
			return fmt.Errorf("unable to save report entry %s: %w", name, err)
		}
	}
	return nil
}

func (r *Report) saveEntry(arc *zip.Writer, name string) error {
	e := r.entries[name]
	if len(e.origin) == 0 {
		return saveFile(arc, name, e.stamp, bytes.NewReader(e.data))
	}
	f, err := os.Open(e.origin)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(arc, name, e.stamp, f)
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: filepath.ToSlash(name), Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
