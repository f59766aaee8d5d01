// Package convert implements the transform command: it finds diagram
// sources in files, directories and zip archives, transforms them and
// writes SVG output with optional PNG previews.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"svgdx/archive"
	"svgdx/state"
)

// runner keeps per run state of the transform command.
type runner struct {
	dst string
	log *zap.Logger
	// code page to decode non UTF-8 names in archives, may be nil
	cp encoding.Encoding
	// count of sources attempted, used to number report entries
	count int
	// count of sources that could not be transformed
	failed int
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("unable to generate run id: %w", err)
	}
	env.RunID = id.String()

	p := &runner{dst: dst, log: log.With(zap.String("run", env.RunID))}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		if p.cp, err = ianaindex.IANA.Encoding(cp); err != nil || p.cp == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			p.cp = nil
		} else {
			n, _ := ianaindex.IANA.Name(p.cp)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("run", env.RunID))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)), zap.Int("sources", p.count), zap.Int("failed", p.failed))
	}(time.Now())

	if err := p.process(ctx, src); err != nil {
		return err
	}
	if p.failed > 0 {
		return fmt.Errorf("%d of %d sources could not be transformed", p.failed, p.count)
	}
	return nil
}

// process determines the input type (directory, archive, or single file) and
// processes accordingly. Path may continue inside an archive, in which case
// only the entries under that path are used.
func (p *runner) process(ctx context.Context, src string) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := p.processDir(ctx, head); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := p.processArchive(ctx, head, tail, ""); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		ok, enc, err := isSourceFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if ok && len(tail) == 0 {
			p.processFile(ctx, head, filepath.Base(head), enc)
			break
		}
		return fmt.Errorf("input was not recognized as diagram source (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

func (p *runner) processFile(ctx context.Context, path, name string, enc srcEncoding) {
	file, err := os.Open(path)
	if err != nil {
		p.failed++
		p.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		return
	}
	defer file.Close()

	if err := p.transformSource(ctx, source{r: file, enc: enc, name: name, origin: path}); err != nil {
		p.failed++
		p.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
	}
}

// processDir finds diagram sources and archives under dir and processes them
// in natural name order.
func (p *runner) processDir(ctx context.Context, dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			p.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	before := p.count
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			p.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			if err := p.processArchive(ctx, path, "", filepath.Dir(rel)); err != nil {
				p.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		ok, enc, err := isSourceFile(path)
		if err != nil {
			p.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !ok {
			p.log.Debug("Skipping file, not recognized as diagram source or archive", zap.String("file", path))
			continue
		}
		p.processFile(ctx, path, rel, enc)
	}
	if p.count == before {
		p.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

// processArchive transforms sources found in the archive under "pathIn".
// Output paths are rooted at "pathOut".
func (p *runner) processArchive(ctx context.Context, path, pathIn, pathOut string) error {
	before := p.count
	err := archive.Walk(ctx, path, pathIn, func(arc string, f *zip.File) error {
		ok, enc, err := isSourceInArchive(f)
		if err != nil {
			p.log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !ok {
			p.log.Debug("Skipping file, not recognized as diagram source", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		r, err := f.Open()
		if err != nil {
			p.failed++
			p.log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		name := p.entryName(f)
		if err := p.transformSource(ctx, source{r: r, enc: enc, name: filepath.Join(pathOut, filepath.FromSlash(name))}); err != nil {
			p.failed++
			p.log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	if err == nil && p.count == before {
		p.log.Debug("Nothing to process", zap.String("archive", path))
	}
	return err
}

// entryName returns the archive entry name, decoded with the forced code
// page when the archive does not mark it as UTF-8.
func (p *runner) entryName(f *zip.File) string {
	name := f.FileHeader.Name
	if p.cp == nil || !f.FileHeader.NonUTF8 {
		return name
	}
	n, err := p.cp.NewDecoder().String(name)
	if err != nil {
		cs, _ := ianaindex.IANA.Name(p.cp)
		p.log.Warn("Unable to convert archive name from specified encoding",
			zap.String("charset", cs), zap.String("path", name), zap.Error(err))
		return name
	}
	return n
}
