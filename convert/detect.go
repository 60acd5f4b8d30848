package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
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

func (e srcEncoding) String() string {
	switch e {
	case encUTF8:
		return "utf-8"
	case encUTF16BigEndian:
		return "utf-16be"
	case encUTF16LittleEndian:
		return "utf-16le"
	case encUTF32BigEndian:
		return "utf-32be"
	case encUTF32LittleEndian:
		return "utf-32le"
	}
	return "unknown"
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

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks for byte order mark. UTF-32LE must be checked before
// UTF-16LE, they share first two bytes.
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

func (e srcEncoding) encoding() encoding.Encoding {
	switch e {
	case encUTF8:
		return unicode.UTF8BOM
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM)
	}
	panic(fmt.Sprintf("no decoder for encoding %d", e))
}

// isArchiveFile sniffs file content, extension is not trusted.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	kind, err := filetype.Archive(head[:n])
	if err != nil {
		return false, nil
	}
	return kind == matchers.TypeZip, nil
}

// isStylesheet checks file extension against configured list.
func isStylesheet(name string, exts []string) bool {
	ext := filepath.Ext(name)
	return len(ext) > 0 && slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

var charsetPrefix = []byte(`@charset "`)

// declaredCharset returns label of the leading @charset rule and length of
// the rule in bytes. Only the exact form `@charset "label";` is recognized.
func declaredCharset(data []byte) (string, int) {
	if !bytes.HasPrefix(data, charsetPrefix) {
		return "", 0
	}
	rest := data[len(charsetPrefix):]
	end := bytes.Index(rest, []byte(`";`))
	if end <= 0 || end > 64 {
		return "", 0
	}
	return string(rest[:end]), len(charsetPrefix) + end + 2
}

// decode converts stylesheet to UTF-8. Encoding is selected by byte order
// mark, then by @charset rule, then UTF-8 is assumed with fallback code page
// used for content which is not valid UTF-8. When content is transcoded the
// @charset rule is dropped. Returned name describes what was used.
func decode(data []byte, fallback encoding.Encoding) ([]byte, string, error) {
	if enc := detectUTF(data); enc != encUnknown {
		out, err := enc.encoding().NewDecoder().Bytes(data)
		if err != nil {
			return nil, "", fmt.Errorf("unable to decode %s content: %w", enc, err)
		}
		if _, n := declaredCharset(out); n > 0 {
			out = out[n:]
		}
		return out, enc.String(), nil
	}

	if label, n := declaredCharset(data); n > 0 {
		enc, name := charset.Lookup(label)
		if enc == nil {
			return nil, "", fmt.Errorf("unsupported @charset %q", label)
		}
		// utf-16 labels in ASCII compatible content are meaningless
		if name == "utf-8" || strings.HasPrefix(name, "utf-16") {
			return data, "utf-8", nil
		}
		out, err := enc.NewDecoder().Bytes(data[n:])
		if err != nil {
			return nil, "", fmt.Errorf("unable to decode %s content: %w", name, err)
		}
		return out, name, nil
	}

	if utf8.Valid(data) {
		return data, "utf-8", nil
	}
	if fallback == nil {
		return nil, "", errors.New("content is not valid UTF-8 and no code page was specified")
	}
	out, err := fallback.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("unable to decode content: %w", err)
	}
	name, err := htmlindex.Name(fallback)
	if err != nil {
		name = "fallback"
	}
	return out, name, nil
}
