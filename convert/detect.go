package convert

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

// headerSize is how much of a file is looked at to recognize it.
const headerSize = 8192

var sourceType = filetype.NewType("svgdx", "image/svg+xml")

func init() {
	filetype.AddMatcher(sourceType, matchSource)
}

// matchSource looks for an svg root element after the prolog. Comments,
// processing instructions and doctype are skipped.
func matchSource(buf []byte) bool {
	s := bytes.TrimSpace(buf)
	for len(s) > 0 {
		switch {
		case bytes.HasPrefix(s, []byte("<!--")):
			end := bytes.Index(s, []byte("-->"))
			if end < 0 {
				return false
			}
			s = s[end+3:]
		case bytes.HasPrefix(s, []byte("<?")), bytes.HasPrefix(s, []byte("<!")):
			end := bytes.IndexByte(s, '>')
			if end < 0 {
				return false
			}
			s = s[end+1:]
		default:
			return isSvgTag(s)
		}
		s = bytes.TrimSpace(s)
	}
	return false
}

func isSvgTag(s []byte) bool {
	if !bytes.HasPrefix(s, []byte("<svg")) || len(s) == 4 {
		return false
	}
	switch s[4] {
	case ' ', '\t', '\r', '\n', '>', '/':
		return true
	}
	return false
}

func isSourceExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".svg", ".xml":
		return true
	}
	return false
}

func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHeader(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isSourceFile reports whether the file holds diagram markup and which
// byte order mark it starts with.
func isSourceFile(path string) (bool, srcEncoding, error) {
	if !isSourceExt(path) {
		return false, encUnknown, nil
	}
	head, err := readHeader(path)
	if err != nil {
		return false, encUnknown, err
	}
	ok, enc := matchHeader(head)
	return ok, enc, nil
}

func isSourceInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !isSourceExt(f.FileHeader.Name) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	head, err := readFull(r)
	if err != nil {
		return false, encUnknown, err
	}
	ok, enc := matchHeader(head)
	return ok, enc, nil
}

func matchHeader(head []byte) (bool, srcEncoding) {
	enc := detectUTF(head)
	// truncated multi-byte tail is expected here
	decoded, _ := io.ReadAll(selectReader(bytes.NewReader(head), enc))
	return filetype.IsType(decoded, sourceType), enc
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readFull(f)
}

func readFull(r io.Reader) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

// selectReader strips the byte order mark and converts the content to
// UTF-8. Sources without a mark are left to the XML decoder.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	// this should never happen
	panic("unsupported source encoding")
}

func (e srcEncoding) String() string {
	names := [...]string{"unknown", "utf-8", "utf-16be", "utf-16le", "utf-32be", "utf-32le"}
	if e < 0 || int(e) >= len(names) {
		return "invalid"
	}
	return names[e]
}
