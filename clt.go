package vfont

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	stdStrconv "strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
)

// A CLT directory holds one file per glyph, named after the glyph index and its primary code point: 00041.clt or 00041-u0041.clt. A file is either
//
//	"PCLR", uint16 LE width, uint16 LE height, row-padded bitmap
//
// or the editor form
//
//	"PCLT\n", "W H\n", text rows as produced by Glyph.TextRows
const (
	cltExt        = ".clt"
	cltMagic      = "PCLR"
	cltTextMagic  = "PCLT\n"
	cltHeaderSize = 8
)

// CLTOptions configures the CLT directory codec.
type CLTOptions struct {
	// Text writes the editor form instead of the binary form.
	Text bool
}

// CLTName returns the file name of glyph index with code point r, or without a code point if r is negative.
func CLTName(index int, r rune) string {
	if r < 0 {
		return fmt.Sprintf("%05x%s", index, cltExt)
	}
	return fmt.Sprintf("%05x-u%04x%s", index, r, cltExt)
}

// EncodeCLT encodes a single glyph as a CLT file.
func EncodeCLT(g Glyph, opts CLTOptions) ([]byte, error) {
	if opts.Text {
		return []byte(fmt.Sprintf("%s%d %d\n%s", cltTextMagic, g.Size.W, g.Size.H, g.TextRows())), nil
	}
	if 0xFFFF < g.Size.W || 0xFFFF < g.Size.H {
		return nil, fmt.Errorf("clt: unsupported glyph size %v: %w", g.Size, ErrInvalidArgument)
	}
	b := make([]byte, 0, cltHeaderSize+len(g.Data))
	b = append(b, cltMagic...)
	b = appendUint16LE(b, uint16(g.Size.W))
	b = appendUint16LE(b, uint16(g.Size.H))
	return append(b, g.RowPadded()...), nil
}

// DecodeCLT decodes a single glyph from either CLT form.
func DecodeCLT(b []byte) (Glyph, error) {
	if bytes.HasPrefix(b, []byte(cltTextMagic)) {
		header, rows, ok := strings.Cut(string(b[len(cltTextMagic):]), "\n")
		if !ok {
			return Glyph{}, fmt.Errorf("clt: header: %w", ErrTruncated)
		}
		var w, h uint32
		if _, err := fmt.Sscanf(header, "%d %d", &w, &h); err != nil {
			return Glyph{}, fmt.Errorf("clt: bad size %q: %w", header, ErrInvalidFontData)
		} else if w == 0 || h == 0 {
			return NewGlyph(Size{w, h}), nil
		}
		g, err := ParseTextRows(rows)
		if err != nil {
			return Glyph{}, fmt.Errorf("clt: %w", err)
		} else if g.Size != (Size{w, h}) {
			return Glyph{}, fmt.Errorf("clt: declared size %dx%d but rows are %v: %w", w, h, g.Size, ErrInvalidFontData)
		}
		return g, nil
	}

	if len(b) < len(cltMagic) || string(b[:len(cltMagic)]) != cltMagic {
		return Glyph{}, fmt.Errorf("clt: bad magic: %w", ErrInvalidFontData)
	}
	r := parse.NewBinaryReaderLE(b[len(cltMagic):])
	w := uint32(r.ReadUint16())
	h := uint32(r.ReadUint16())
	if r.EOF() {
		return Glyph{}, fmt.Errorf("clt: header: %w", ErrTruncated)
	}
	g, err := DecodeRowPadded(Size{w, h}, b[cltHeaderSize:])
	if err != nil {
		return Glyph{}, fmt.Errorf("clt: %w", err)
	} else if len(b)-cltHeaderSize != len(g.Data) {
		return Glyph{}, fmt.Errorf("clt: %d bytes of trailing data: %w", len(b)-cltHeaderSize-len(g.Data), ErrInvalidFontData)
	}
	return g, nil
}

// SaveCLTGlyph writes glyph index to dir, named with code point r or without one if r is negative. The directory must exist.
func (f *Font) SaveCLTGlyph(dir string, index int, r rune, opts CLTOptions) error {
	g, ok := f.Glyph(index)
	if !ok {
		return fmt.Errorf("clt: glyph %d out of range: %w", index, ErrInvalidArgument)
	}
	b, err := EncodeCLT(g, opts)
	if err != nil {
		return fmt.Errorf("glyph %d: %w", index, err)
	}
	return writeFile(filepath.Join(dir, CLTName(index, r)), b)
}

// SaveCLT writes every glyph to its own file in dir, creating dir if needed. Files are named after the glyph's lowest code point if it has one. The first failure stops the export.
func (f *Font) SaveCLT(dir string, opts CLTOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioError("mkdir", dir, err)
	}
	for i := range f.Glyphs {
		r, ok := f.Unicode.Primary(i)
		if !ok {
			r = -1
		}
		if err := f.SaveCLTGlyph(dir, i, r, opts); err != nil {
			return err
		}
	}
	return nil
}

// LoadCLT reads a CLT directory. Glyph indices must run from zero without gaps. Code points in the file names are collected in the font's UnicodeMap, which is nil if there are none.
func LoadCLT(dir string) (*Font, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("readdir", dir, err)
	}

	type cltFile struct {
		index int
		r     rune
		name  string
	}
	var files []cltFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, cltExt) || strings.HasPrefix(name, ".") {
			continue
		}
		sIndex, sCodepoint, hasCodepoint := strings.Cut(strings.TrimSuffix(name, cltExt), "-u")
		index, err := stdStrconv.ParseUint(sIndex, 16, 31)
		if err != nil {
			return nil, fmt.Errorf("clt: bad file name %q: %w", name, ErrInvalidFontData)
		}
		r := rune(-1)
		if hasCodepoint {
			v, err := parseHexCodepoint(sCodepoint)
			if err != nil {
				return nil, fmt.Errorf("clt: bad file name %q: %w", name, ErrInvalidFontData)
			}
			r = rune(v)
		}
		files = append(files, cltFile{int(index), r, name})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	f := &Font{
		Glyphs: make([]Glyph, 0, len(files)),
	}
	for i, file := range files {
		if file.index != i {
			if file.index < i {
				return nil, fmt.Errorf("clt: duplicate glyph %d: %w", file.index, ErrInvalidFontData)
			}
			return nil, fmt.Errorf("clt: missing glyph %d: %w", i, ErrInvalidFontData)
		}
		b, err := readFile(filepath.Join(dir, file.name))
		if err != nil {
			return nil, err
		}
		g, err := DecodeCLT(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.name, err)
		}
		f.Append(g)
		if 0 <= file.r {
			if f.Unicode == nil {
				f.Unicode = NewUnicodeMap()
			}
			f.Unicode.Insert(i, file.r)
		}
	}
	return f, nil
}
