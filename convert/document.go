package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"svgdx/element"
	"svgdx/markup"
	"svgdx/state"
	"svgdx/transform"
	"svgdx/utils/images"

	dbg "svgdx/utils/debug"
)

// document is a single transformed source.
type document struct {
	// src is the source path relative to what was requested, always
	// including the file name.
	src    string
	index  int
	runID  string
	events []element.Event
}

// title returns the text of the first title element of the output.
func (d *document) title() string {
	var (
		sb     strings.Builder
		inside bool
	)
	for _, ev := range d.events {
		switch ev.Kind {
		case element.EventStart:
			if ev.Element.Name == "title" {
				inside = true
			}
		case element.EventEnd:
			if inside && ev.Element.Name == "title" {
				return strings.TrimSpace(sb.String())
			}
		case element.EventText, element.EventCData:
			if inside {
				sb.WriteString(ev.Text)
			}
		}
	}
	return ""
}

// rootAttr returns an attribute of the output svg element.
func (d *document) rootAttr(name string) string {
	for _, ev := range d.events {
		if ev.Kind == element.EventStart || ev.Kind == element.EventEmpty {
			return ev.Element.Attrs.Value(name)
		}
	}
	return ""
}

var encodingDeclRe = regexp.MustCompile(`^(\s*<\?xml[^>]*?)\s+encoding\s*=\s*["'][^"']*["']`)

// readSource decodes the source to UTF-8. Sources with a byte order mark
// are already converted here, so the encoding declaration is dropped to
// keep the XML decoder from converting them again.
func readSource(r io.Reader, enc srcEncoding) ([]byte, error) {
	data, err := io.ReadAll(selectReader(r, enc))
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	if enc != encUnknown {
		data = encodingDeclRe.ReplaceAll(data, []byte("$1"))
	}
	return data, nil
}

// source is a single input found by the runner.
type source struct {
	r   io.Reader
	enc srcEncoding
	// name is the path relative to what was requested, always including
	// the file name. When a file was given directly it is its base name,
	// inside a directory or an archive it is the relative path there.
	name string
	// origin is the file on disk, empty for archive entries.
	origin string
}

// transformSource transforms a single source and writes the output under
// the destination directory.
func (p *runner) transformSource(ctx context.Context, s source) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := p.log

	p.count++
	index, src, r, enc := p.count, s.name, s.r, s.enc

	var outputName string

	log.Info("Transformation starting", zap.String("from", src), zap.Stringer("encoding", enc))
	defer func(start time.Time) {
		// NOTE: rasterization libraries may panic on unusual input, we do not
		// want to stop processing other sources.
		if r := recover(); r != nil {
			log.Error("Transformation ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("transformation panic: %v", r)
		} else if rerr == nil {
			log.Info("Transformation completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	data, err := readSource(r, enc)
	if err != nil {
		return err
	}
	env.Rpt.StoreData(reportName(index, "source", src), data)

	in, err := markup.Read(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unable to parse source (%s): %w", src, err)
	}

	d := &document{src: src, index: index, runID: env.RunID}
	if d.events, err = transform.New(env.TransformOptions(), log).Events(in); err != nil {
		return fmt.Errorf("unable to transform source (%s): %w", src, err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(reportName(index, "tree", src)+".txt", []byte(dbg.Events(d.events)))
	}

	var out bytes.Buffer
	if err := markup.Write(&out, d.events); err != nil {
		return fmt.Errorf("unable to serialize output: %w", err)
	}

	outputName = buildOutputPath(d, p.dst, env)
	if sameFile(outputName, s.origin) {
		return fmt.Errorf("output would replace its source: %s", outputName)
	}
	if err := writeOutput(outputName, out.Bytes(), env, log); err != nil {
		return err
	}
	env.Rpt.Store(reportName(index, "result", src), outputName)

	png := env.Cfg.Output.PNG
	if !png.Enable {
		return nil
	}
	pngName := strings.TrimSuffix(outputName, filepath.Ext(outputName)) + ".png"
	img, err := images.EncodePNG(out.Bytes(), png.Width, png.Height, png.StrokeWidthFactor)
	if err != nil {
		return fmt.Errorf("unable to render preview: %w", err)
	}
	if err := writeOutput(pngName, img, env, log); err != nil {
		return err
	}
	env.Rpt.Store(reportName(index, "preview", src), pngName)
	return nil
}

func sameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a, errA := filepath.Abs(a)
	b, errB := filepath.Abs(b)
	return errA == nil && errB == nil && a == b
}

func reportName(index int, kind, src string) string {
	return fmt.Sprintf("%s-%03d-%s", kind, index, filepath.Base(src))
}

// writeOutput writes data to a new file, replacing an existing one only
// when overwrite was requested.
func writeOutput(name string, data []byte, env *state.LocalEnv, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
