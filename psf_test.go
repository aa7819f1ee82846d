package vfont

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tdewolff/test"
)

func TestWritePSF1(t *testing.T) {
	f := NewBlankFont()
	f.Glyphs[65] = checkerboard(Size{8, 16})
	f.Unicode = NewUnicodeMap()
	f.Unicode.Insert(65, 'A')

	b, err := f.WritePSF(PSFOptions{})
	test.Error(t, err)
	test.T(t, len(b), 4+256*16+256*2+2)
	test.Bytes(t, b[:4], []byte{0x36, 0x04, 0x02, 0x10})
	test.Bytes(t, b[4+65*16:4+65*16+2], []byte{0xAA, 0x55})

	table := b[4+256*16:]
	test.Bytes(t, table[:2], []byte{0xFF, 0xFF})
	test.Bytes(t, table[64*2:64*2+6], []byte{0xFF, 0xFF, 0x41, 0x00, 0xFF, 0xFF})

	f2, err := ParsePSF(b)
	test.Error(t, err)
	equalGlyphs(t, f2, f)
	i, ok := f2.Index('A')
	test.That(t, ok)
	test.T(t, i, 65)
	test.T(t, f2.Unicode.Len(), 1)
}

func TestWritePSF2(t *testing.T) {
	f := &Font{Glyphs: []Glyph{checkerboard(Size{10, 3}), NewGlyph(Size{10, 3}), NewGlyph(Size{10, 3})}}
	f.Unicode = NewUnicodeMap()
	f.Unicode.Insert(0, 'a')
	f.Unicode.Insert(1, '♥')
	f.Unicode.Insert(1, 'x')

	b, err := f.WritePSF(PSFOptions{})
	test.Error(t, err)
	test.Bytes(t, b[:32], []byte{
		0x72, 0xb5, 0x4a, 0x86, 0x00, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00, 0x0A, 0x00, 0x00, 0x00,
	})
	test.Bytes(t, b[32:38], []byte{0xAA, 0x80, 0x55, 0x40, 0xAA, 0x80})
	test.Bytes(t, b[32+3*6:], []byte{'a', 0xFF, 'x', 0xE2, 0x99, 0xA5, 0xFF, 0xFF})

	f2, err := ParsePSF(b)
	test.Error(t, err)
	equalGlyphs(t, f2, f)
	test.T(t, f2.Codepoints(1), []rune{'x', '♥'})
	test.T(t, f2.Codepoints(2), []rune{})
}

func TestPSFVersionSelection(t *testing.T) {
	f := NewBlankFont()
	b, err := f.WritePSF(PSFOptions{})
	test.Error(t, err)
	test.Bytes(t, b[:4], []byte{0x36, 0x04, 0x00, 0x10})
	test.T(t, len(b), 4+256*16, "no table without a map")

	b, err = f.WritePSF(PSFOptions{Version: PSF2})
	test.Error(t, err)
	test.That(t, bytes.HasPrefix(b, []byte(psf2Magic)))
	test.T(t, len(b), 32+256*16)

	// code points beyond the PSF1 range need PSF2
	f.Unicode = NewUnicodeMap()
	f.Unicode.Insert(1, 0x1F600)
	b, err = f.WritePSF(PSFOptions{})
	test.Error(t, err)
	test.That(t, bytes.HasPrefix(b, []byte(psf2Magic)))
	_, err = f.WritePSF(PSFOptions{Version: PSF1})
	test.That(t, errors.Is(err, ErrInvalidArgument), err)

	f = &Font{Glyphs: []Glyph{NewGlyph(Size{8, 8})}}
	b, err = f.WritePSF(PSFOptions{})
	test.Error(t, err)
	test.That(t, bytes.HasPrefix(b, []byte(psf2Magic)))
	_, err = f.WritePSF(PSFOptions{Version: PSF1})
	test.That(t, errors.Is(err, ErrInvalidArgument), err)

	f.Append(NewGlyph(Size{8, 9}))
	_, err = f.WritePSF(PSFOptions{})
	test.That(t, errors.Is(err, ErrInvalidArgument), err)

	test.String(t, PSF1.String(), "PSF1")
	test.String(t, PSFAuto.String(), "auto")
}

func TestParsePSFTable(t *testing.T) {
	// PSF1 with 512 glyphs of height 1, a sequence, and a code point claimed twice
	b := []byte{0x36, 0x04, 0x03, 0x01}
	b = append(b, make([]byte, 512)...)
	b = append(b, 0x41, 0x00, 0xFE, 0xFF, 0x65, 0x00, 0x01, 0x03, 0xFF, 0xFF)
	b = append(b, 0x41, 0x00, 0x42, 0x00, 0xFF, 0xFF)
	for i := 2; i < 512; i++ {
		b = append(b, 0xFF, 0xFF)
	}
	f, err := ParsePSF(b)
	test.Error(t, err)
	test.T(t, f.Len(), 512)
	test.T(t, f.Glyphs[0].Size, Size{8, 1})
	test.T(t, f.Codepoints(0), []rune{'A'})
	test.T(t, f.Codepoints(1), []rune{'B'})

	// PSF2 with a sequence
	f = &Font{Glyphs: []Glyph{NewGlyph(Size{4, 2})}}
	b, err = f.WritePSF(PSFOptions{Version: PSF2})
	test.Error(t, err)
	b[12] = 0x01 // has table
	b = append(b, 'a', 0xFE, 'e', 0xCC, 0x81, 0xFF)
	f, err = ParsePSF(b)
	test.Error(t, err)
	test.T(t, f.Codepoints(0), []rune{'a'})
}

func TestParsePSFErrors(t *testing.T) {
	psf2 := func(fields ...uint32) string {
		b := []byte(psf2Magic)
		for _, v := range fields {
			b = appendUint32LE(b, v)
		}
		return string(b)
	}
	var tests = []struct {
		name string
		b    string
		err  error
	}{
		{"empty", "", ErrInvalidFontData},
		{"magic", "\x36\x05\x00\x08", ErrInvalidFontData},
		{"psf1 header", "\x36\x04\x00", ErrTruncated},
		{"psf1 mode", "\x36\x04\x08\x08", ErrInvalidFontData},
		{"psf1 charsize", "\x36\x04\x00\x00", ErrInvalidFontData},
		{"psf1 bitmaps", "\x36\x04\x00\x01" + string(make([]byte, 255)), ErrTruncated},
		{"psf1 trailing", "\x36\x04\x00\x01" + string(make([]byte, 257)), ErrInvalidFontData},
		{"psf1 table", "\x36\x04\x02\x01" + string(make([]byte, 256)) + "\xFF\xFF", ErrTruncated},
		{"psf2 header", psf2(0, 32, 0, 1), ErrTruncated},
		{"psf2 version", psf2(1, 32, 0, 1, 1, 1, 8), ErrInvalidFontData},
		{"psf2 header size", psf2(0, 16, 0, 1, 1, 1, 8), ErrInvalidFontData},
		{"psf2 flags", psf2(0, 32, 2, 1, 1, 1, 8), ErrInvalidFontData},
		{"psf2 charsize", psf2(0, 32, 0, 1, 2, 1, 8), ErrInvalidFontData},
		{"psf2 bitmaps", psf2(0, 32, 0, 2, 1, 1, 8) + "\x00", ErrTruncated},
		{"psf2 table", psf2(0, 32, 1, 1, 1, 1, 8) + "\x00a", ErrTruncated},
		{"psf2 utf8", psf2(0, 32, 1, 1, 1, 1, 8) + "\x00\xC0\xFF", ErrInvalidFontData},
		{"psf2 memory", psf2(0, 32, 0, 0xFFFFFFFF, 0x20*0x1000, 0x1000, 0xFF), ErrExceedsMemory},
		{"psf2 wide stride", psf2(0, 32, 0, 1, 0, 1, 0xFFFFFFFF), ErrInvalidFontData},
		{"psf2 wide glyph", psf2(0, 32, 0, 1, 0x20000000, 1, 0xFFFFFFFF), ErrExceedsMemory},
		{"psf2 tall glyph", psf2(0, 32, 0, 1, 0, 0x80000, 0xFFFF), ErrInvalidFontData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePSF([]byte(tt.b))
			test.That(t, errors.Is(err, tt.err), err)
		})
	}
}

func TestPSFFile(t *testing.T) {
	f := randomFont(7, 512, Size{8, 14})
	f.Unicode = latin1UnicodeMap()
	name := filepath.Join(t.TempDir(), "font.psf.gz")
	test.Error(t, f.SavePSF(name, PSFOptions{}))

	f2, err := LoadPSF(name)
	test.Error(t, err)
	equalGlyphs(t, f2, f)
	test.Bytes(t, f2.Unicode.Bytes(), f.Unicode.Bytes())
}

func latin1UnicodeMap() *UnicodeMap {
	m := NewUnicodeMap()
	for r := rune(0); r < 256; r++ {
		m.Insert(256+int(r), r)
	}
	return m
}
