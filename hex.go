package vfont

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	stdStrconv "strconv"
	"strings"
	"unicode/utf8"
)

// HexOptions configures the hex interchange codec.
type HexOptions struct {
	// Height is the number of rows encoded per line, 16 if zero.
	Height uint32
}

func (o HexOptions) height() uint32 {
	if o.Height == 0 {
		return 16
	}
	return o.Height
}

// LoadHex reads a hex interchange file, see ParseHex.
func LoadHex(name string, opts HexOptions) (*Font, []*ParseWarning, error) {
	b, err := readFile(name)
	if err != nil {
		return nil, nil, err
	}
	return ParseHex(b, opts)
}

// ParseHex parses the hex interchange format as used by GNU Unifont. Every line holds a code point or code point range, a colon, and the bitmap as hexadecimal digits where every 4 bits are one row segment and rows are concatenated. The glyph width is 4 times the number of digits divided by the height. Each line becomes a new glyph, and the code points are added to the font's UnicodeMap. Lines starting with # and blank lines are ignored, malformed lines are skipped and returned as warnings.
func ParseHex(b []byte, opts HexOptions) (*Font, []*ParseWarning, error) {
	b, err := decodeText(b)
	if err != nil {
		return nil, nil, err
	}

	height := opts.height()
	f := &Font{
		Unicode: NewUnicodeMap(),
	}
	var warnings []*ParseWarning
	scanner := newLineScanner(b)
	j := 0 // line number
	for scanner.Scan() {
		j++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		lo, hi, g, err := parseHexLine(line, height)
		if err == nil {
			for r := lo; r <= hi; r++ {
				if i, ok := f.Unicode.Index(r); ok {
					err = fmt.Errorf("code point %U already defined by glyph %d", r, i)
					break
				}
			}
		}
		if err != nil {
			warnings = warn(warnings, "hex", j, line, err)
			continue
		}

		index := f.Append(g)
		for r := lo; r <= hi; r++ {
			f.Unicode.Insert(index, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return f, warnings, nil
}

func parseHexLine(line string, height uint32) (rune, rune, Glyph, error) {
	sCodepoint, digits, ok := strings.Cut(line, ":")
	if !ok {
		return 0, 0, Glyph{}, fmt.Errorf("missing colon")
	}
	lo, hi, err := parseRange(sCodepoint, parseHexCodepoint)
	if err != nil {
		return 0, 0, Glyph{}, err
	}

	if math.MaxUint32/4 < uint64(len(digits)) {
		return 0, 0, Glyph{}, fmt.Errorf("%d hex digits: %w", len(digits), ErrExceedsMemory)
	}
	n := uint32(len(digits))
	if n == 0 || n%height != 0 {
		return 0, 0, Glyph{}, fmt.Errorf("%d hex digits do not divide into %d rows", n, height)
	}
	perRow := n / height
	size := Size{4 * perRow, height}
	if err := CheckSize(size); err != nil {
		return 0, 0, Glyph{}, err
	}
	g := NewGlyph(size)
	stride := g.Stride()
	for y := 0; y < int(height); y++ {
		row := digits[uint32(y)*perRow : uint32(y+1)*perRow]
		if len(row)%2 != 0 {
			row += "0"
		}
		if _, err := hex.Decode(g.Data[y*stride:(y+1)*stride], []byte(row)); err != nil {
			return 0, 0, Glyph{}, fmt.Errorf("bad hex digits: %v", err)
		}
	}
	return rune(lo), rune(hi), g, nil
}

func parseHexCodepoint(s string) (int, error) {
	v, err := stdStrconv.ParseUint(s, 16, 32)
	if err != nil || s == "" || utf8.MaxRune < v {
		return 0, fmt.Errorf("bad code point %q", s)
	}
	return int(v), nil
}

// WriteHex encodes the font in the hex interchange format, one line per glyph ordered by code point. Glyphs are written with their lowest code point and glyphs without a code point are left out. Without a UnicodeMap glyph i is written as code point i. All glyphs must have the configured height and a width that is a multiple of 4.
func (f *Font) WriteHex(opts HexOptions) ([]byte, error) {
	height := opts.height()
	type entry struct {
		r     rune
		index int
	}
	entries := make([]entry, 0, len(f.Glyphs))
	for i, g := range f.Glyphs {
		if g.Size.H != height || g.Size.W == 0 || g.Size.W%4 != 0 {
			return nil, fmt.Errorf("hex: glyph %d has unsupported size %v: %w", i, g.Size, ErrInvalidArgument)
		}
		if f.Unicode == nil {
			entries = append(entries, entry{rune(i), i})
		} else if r, ok := f.Unicode.Primary(i); ok {
			entries = append(entries, entry{r, i})
		}
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].r < entries[b].r })

	var buf bytes.Buffer
	for _, e := range entries {
		g := f.Glyphs[e.index]
		perRow := int(g.Size.W / 4)
		fmt.Fprintf(&buf, "%04X:", e.r)
		for y := 0; y < int(g.Size.H); y++ {
			row := strings.ToUpper(hex.EncodeToString(g.Data[y*g.Stride() : (y+1)*g.Stride()]))
			buf.WriteString(row[:perRow])
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// SaveHex writes the font to a hex interchange file, see WriteHex.
func (f *Font) SaveHex(name string, opts HexOptions) error {
	b, err := f.WriteHex(opts)
	if err != nil {
		return err
	}
	return writeFile(name, b)
}
