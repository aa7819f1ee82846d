package vfont

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tdewolff/test"
)

const hexA = "0000000018242442427E424242420000"

func TestParseHexMalformedLine(t *testing.T) {
	var document = "0041:" + hexA + "\n" +
		"0042:ZZ\n" +
		"0043:00000000" + strings.Repeat("0", 24) + "\n"
	f, warnings, err := ParseHex([]byte(document), HexOptions{})
	test.Error(t, err)
	test.T(t, f.Len(), 2)
	test.T(t, len(warnings), 1)
	test.T(t, warnings[0].Line, 2)
	test.String(t, warnings[0].Text, "0042:ZZ")

	i, ok := f.Index('A')
	test.That(t, ok)
	test.T(t, i, 0)
	i, ok = f.Index('C')
	test.That(t, ok)
	test.T(t, i, 1)
	_, ok = f.Index('B')
	test.That(t, !ok)

	g := f.Glyphs[0]
	test.T(t, g.Size, Size{8, 16})
	test.String(t, g.TextRows()[4*17:6*17], ""+
		"......####......\n"+
		"....##....##....\n")
}

func TestParseHex(t *testing.T) {
	var document = "# comment\n" +
		"\n" +
		"0061-0063:" + hexA + "\n" +
		"2665:" + strings.Repeat("0F", 32) + "\n" +
		"0062:" + hexA + "\n" +
		"0064:" + hexA + "0\n" +
		"0065\n" +
		"D800Z:" + hexA + "\n" +
		"110000:" + hexA + "\n" +
		"0066:\n"
	f, warnings, err := ParseHex([]byte(document), HexOptions{})
	test.Error(t, err)
	test.T(t, f.Len(), 2)
	test.T(t, len(warnings), 6)
	for i, line := range []int{5, 6, 7, 8, 9, 10} {
		test.T(t, warnings[i].Line, line)
	}

	test.T(t, f.Codepoints(0), []rune{'a', 'b', 'c'})
	test.T(t, f.Codepoints(1), []rune{'♥'})
	test.T(t, f.Glyphs[1].Size, Size{16, 16})
	test.Bytes(t, f.Glyphs[1].Data[:2], []byte{0x0F, 0x0F})
}

func TestParseHexHeight(t *testing.T) {
	// 4 pixels wide, 4 rows high, one digit per row
	f, warnings, err := ParseHex([]byte("0030:F99F\n0031:F9F\n"), HexOptions{Height: 4})
	test.Error(t, err)
	test.T(t, len(warnings), 1)
	test.T(t, f.Len(), 1)
	test.T(t, f.Glyphs[0].Size, Size{4, 4})
	test.Bytes(t, f.Glyphs[0].Data, []byte{0xF0, 0x90, 0x90, 0xF0})
}

func TestParseHexLongLines(t *testing.T) {
	// lines far beyond the default scanner buffer are parsed, or skipped with a warning
	var document = "0041:" + strings.Repeat("1", 1<<20+1) + "\n" +
		"0042:" + strings.Repeat("F", 1<<21) + "\n" +
		"0043:" + hexA + "\n"
	f, warnings, err := ParseHex([]byte(document), HexOptions{})
	test.Error(t, err)
	test.T(t, len(warnings), 1)
	test.T(t, warnings[0].Line, 1)
	test.T(t, f.Len(), 2)
	test.T(t, f.Glyphs[0].Size, Size{1 << 19, 16})
	test.T(t, f.Glyphs[0].Data[1<<15], byte(0xFF))
	i, ok := f.Index('C')
	test.That(t, ok)
	test.T(t, i, 1)
}

func TestParseHexWarningsLogged(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	_, warnings, err := ParseHex([]byte("0041:"+hexA+"\nbad\n"), HexOptions{})
	test.Error(t, err)
	test.T(t, len(warnings), 1)
	test.That(t, strings.Contains(buf.String(), "skipping malformed line"), buf.String())
	test.That(t, strings.Contains(buf.String(), "line=2"), buf.String())
}

func TestHexRoundTrip(t *testing.T) {
	var document = "0020:" + strings.Repeat("0", 32) + "\n" +
		"0041:" + hexA + "\n" +
		"2665:" + strings.Repeat("0F", 32) + "\n"
	f, warnings, err := ParseHex([]byte(document), HexOptions{})
	test.Error(t, err)
	test.T(t, len(warnings), 0)

	b, err := f.WriteHex(HexOptions{})
	test.Error(t, err)
	test.String(t, string(b), document)

	name := filepath.Join(t.TempDir(), "font.hex")
	test.Error(t, f.SaveHex(name, HexOptions{}))
	f2, warnings, err := LoadHex(name, HexOptions{})
	test.Error(t, err)
	test.T(t, len(warnings), 0)
	equalGlyphs(t, f2, f)
	test.T(t, f2.Codepoints(2), []rune{'♥'})
}

func TestWriteHex(t *testing.T) {
	// glyph 0 has no code point and is skipped, glyph 1 has two and is written once
	f := &Font{Glyphs: []Glyph{NewGlyph(Size{4, 2}), checkerboard(Size{4, 2})}}
	f.Unicode = NewUnicodeMap()
	f.Unicode.Insert(1, 'x')
	f.Unicode.Insert(1, 'X')
	b, err := f.WriteHex(HexOptions{Height: 2})
	test.Error(t, err)
	test.String(t, string(b), "0058:A5\n")

	// without a map the index is the code point
	f.Unicode = nil
	b, err = f.WriteHex(HexOptions{Height: 2})
	test.Error(t, err)
	test.String(t, string(b), "0000:00\n0001:A5\n")

	_, err = f.WriteHex(HexOptions{})
	test.That(t, errors.Is(err, ErrInvalidArgument), err)
	f.Glyphs[0] = NewGlyph(Size{3, 2})
	_, err = f.WriteHex(HexOptions{Height: 2})
	test.That(t, errors.Is(err, ErrInvalidArgument), err)
}

func TestLoadHexMissing(t *testing.T) {
	_, _, err := LoadHex(filepath.Join(t.TempDir(), "missing.hex"), HexOptions{})
	var ioErr *IOError
	test.That(t, errors.As(err, &ioErr), err)
}
