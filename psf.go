package vfont

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.win.tue.nl/~aeb/linux/kbd/font-formats-1.html

const (
	psf1Magic0        = 0x36
	psf1Magic1        = 0x04
	psf1Mode512       = 0x01
	psf1ModeHasTab    = 0x02
	psf1ModeSeq       = 0x04
	psf1Separator     = 0xFFFF
	psf1StartSeq      = 0xFFFE
	psf2Magic         = "\x72\xb5\x4a\x86"
	psf2HeaderSize    = 32
	psf2FlagHasTable  = 0x01
	psf2Separator     = 0xFF
	psf2StartSeq      = 0xFE
	psf2MaxHeaderSize = 1024
)

// PSFVersion selects the PC screen font variant.
type PSFVersion int

// see PSFVersion
const (
	PSFAuto PSFVersion = iota // PSF1 if the font fits, otherwise PSF2
	PSF1
	PSF2
)

func (v PSFVersion) String() string {
	switch v {
	case PSF1:
		return "PSF1"
	case PSF2:
		return "PSF2"
	}
	return "auto"
}

// PSFOptions configures the PSF writer.
type PSFOptions struct {
	Version PSFVersion
}

// LoadPSF reads a PC screen font file, see ParsePSF.
func LoadPSF(name string) (*Font, error) {
	b, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return ParsePSF(b)
}

// ParsePSF parses a PSF1 or PSF2 font. If the font has a Unicode table, it is returned as the font's UnicodeMap. Character sequences in the table are ignored as they have no single code point.
func ParsePSF(b []byte) (*Font, error) {
	if 2 <= len(b) && b[0] == psf1Magic0 && b[1] == psf1Magic1 {
		return parsePSF1(b)
	} else if 4 <= len(b) && string(b[:4]) == psf2Magic {
		return parsePSF2(b)
	}
	return nil, fmt.Errorf("psf: bad magic: %w", ErrInvalidFontData)
}

func parsePSF1(b []byte) (*Font, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("psf1: header: %w", ErrTruncated)
	}
	mode, charsize := b[2], b[3]
	if mode&^(psf1Mode512|psf1ModeHasTab|psf1ModeSeq) != 0 {
		return nil, fmt.Errorf("psf1: bad mode 0x%02X: %w", mode, ErrInvalidFontData)
	} else if charsize == 0 {
		return nil, fmt.Errorf("psf1: zero charsize: %w", ErrInvalidFontData)
	}
	numGlyphs := uint32(256)
	if mode&psf1Mode512 != 0 {
		numGlyphs = 512
	}
	hasTable := mode&(psf1ModeHasTab|psf1ModeSeq) != 0

	size := Size{8, uint32(charsize)}
	f, err := parseBitmaps("psf1", b[4:], size, numGlyphs, !hasTable)
	if err != nil {
		return nil, err
	}
	if !hasTable {
		return f, nil
	}

	f.Unicode = NewUnicodeMap()
	r := parse.NewBinaryReaderLE(b[4+numGlyphs*uint32(charsize):])
	for i := 0; i < int(numGlyphs); i++ {
		inSeq := false
		for {
			v := r.ReadUint16()
			if r.EOF() {
				return nil, fmt.Errorf("psf1: unicode table of glyph %d: %w", i, ErrTruncated)
			} else if v == psf1Separator {
				break
			} else if v == psf1StartSeq {
				inSeq = true
			} else if !inSeq {
				insertTableEntry(f.Unicode, i, rune(v))
			}
		}
	}
	return f, nil
}

func parsePSF2(b []byte) (*Font, error) {
	if uint64(math.MaxUint32) < uint64(len(b)) {
		return nil, ErrExceedsMemory
	}
	r := parse.NewBinaryReaderLE(b)
	_ = r.ReadBytes(4) // magic
	version := r.ReadUint32()
	headerSize := r.ReadUint32()
	flags := r.ReadUint32()
	numGlyphs := r.ReadUint32()
	charsize := r.ReadUint32()
	height := r.ReadUint32()
	width := r.ReadUint32()
	if r.EOF() {
		return nil, fmt.Errorf("psf2: header: %w", ErrTruncated)
	} else if version != 0 {
		return nil, fmt.Errorf("psf2: unsupported version %d: %w", version, ErrInvalidFontData)
	} else if headerSize < psf2HeaderSize || psf2MaxHeaderSize < headerSize {
		return nil, fmt.Errorf("psf2: bad header size %d: %w", headerSize, ErrInvalidFontData)
	} else if flags&^psf2FlagHasTable != 0 {
		return nil, fmt.Errorf("psf2: bad flags 0x%08X: %w", flags, ErrInvalidFontData)
	} else if uint64(charsize) != rowStride(width)*uint64(height) {
		return nil, fmt.Errorf("psf2: charsize %d does not match %dx%d: %w", charsize, width, height, ErrInvalidFontData)
	} else if uint32(len(b)) < headerSize {
		return nil, fmt.Errorf("psf2: header: %w", ErrTruncated)
	}
	hasTable := flags&psf2FlagHasTable != 0

	f, err := parseBitmaps("psf2", b[headerSize:], Size{width, height}, numGlyphs, !hasTable)
	if err != nil {
		return nil, err
	}
	if !hasTable {
		return f, nil
	}

	f.Unicode = NewUnicodeMap()
	table := b[uint64(headerSize)+uint64(numGlyphs)*uint64(charsize):]
	for i := 0; i < int(numGlyphs); i++ {
		inSeq := false
		for {
			if len(table) == 0 {
				return nil, fmt.Errorf("psf2: unicode table of glyph %d: %w", i, ErrTruncated)
			} else if table[0] == psf2Separator {
				table = table[1:]
				break
			} else if table[0] == psf2StartSeq {
				table = table[1:]
				inSeq = true
				continue
			}
			c, n := utf8.DecodeRune(table)
			if c == utf8.RuneError && n <= 1 {
				return nil, fmt.Errorf("psf2: bad UTF-8 in unicode table of glyph %d: %w", i, ErrInvalidFontData)
			}
			table = table[n:]
			if !inSeq {
				insertTableEntry(f.Unicode, i, c)
			}
		}
	}
	return f, nil
}

func insertTableEntry(m *UnicodeMap, index int, r rune) {
	if !m.Insert(index, r) {
		if i, _ := m.Index(r); i != index {
			Logger().Debug("psf: duplicate code point in unicode table", "codepoint", fmt.Sprintf("%U", r), "glyph", index, "first", i)
		}
	}
}

// fitsPSF1 returns true if the font can be stored as PSF1.
func (f *Font) fitsPSF1(size Size) bool {
	if size.W != 8 || size.H == 0 || 255 < size.H || len(f.Glyphs) != 256 && len(f.Glyphs) != 512 {
		return false
	}
	for i := range f.Glyphs {
		for _, r := range f.Unicode.Codepoints(i) {
			if psf1StartSeq <= r {
				return false
			}
		}
	}
	return true
}

// WritePSF encodes the font as a PC screen font. All glyphs must have the same size. A Unicode table is appended only if the font has a UnicodeMap.
func (f *Font) WritePSF(opts PSFOptions) ([]byte, error) {
	size, err := f.uniformSize()
	if err != nil {
		return nil, fmt.Errorf("psf: %w", err)
	}
	version := opts.Version
	if version == PSFAuto {
		version = PSF2
		if f.fitsPSF1(size) {
			version = PSF1
		}
	}

	glyphLen, err := bitmapLen(size, uint32(len(f.Glyphs)))
	if err != nil {
		return nil, fmt.Errorf("psf: %w", err)
	}
	hasTable := f.Unicode != nil
	b := make([]byte, 0, psf2HeaderSize+int(glyphLen)*len(f.Glyphs))
	switch version {
	case PSF1:
		if !f.fitsPSF1(size) {
			return nil, fmt.Errorf("psf1: need 256 or 512 glyphs of width 8 and code points below U+FFFE, have %d of %v: %w", len(f.Glyphs), size, ErrInvalidArgument)
		}
		mode := byte(0)
		if len(f.Glyphs) == 512 {
			mode |= psf1Mode512
		}
		if hasTable {
			mode |= psf1ModeHasTab
		}
		b = append(b, psf1Magic0, psf1Magic1, mode, byte(size.H))
	case PSF2:
		if math.MaxUint32 < uint64(len(f.Glyphs)) {
			return nil, fmt.Errorf("psf2: too many glyphs: %w", ErrInvalidArgument)
		}
		flags := uint32(0)
		if hasTable {
			flags |= psf2FlagHasTable
		}
		b = append(b, psf2Magic...)
		b = appendUint32LE(b, 0) // version
		b = appendUint32LE(b, psf2HeaderSize)
		b = appendUint32LE(b, flags)
		b = appendUint32LE(b, uint32(len(f.Glyphs)))
		b = appendUint32LE(b, glyphLen)
		b = appendUint32LE(b, size.H)
		b = appendUint32LE(b, size.W)
	default:
		return nil, fmt.Errorf("psf: unknown version %d: %w", version, ErrInvalidArgument)
	}

	for _, g := range f.Glyphs {
		b = append(b, g.RowPadded()...)
	}

	if hasTable {
		for i := range f.Glyphs {
			for _, r := range f.Unicode.Codepoints(i) {
				if version == PSF1 {
					b = appendUint16LE(b, uint16(r))
				} else {
					b = utf8.AppendRune(b, r)
				}
			}
			if version == PSF1 {
				b = appendUint16LE(b, psf1Separator)
			} else {
				b = append(b, psf2Separator)
			}
		}
	}
	return b, nil
}

// SavePSF writes the font to a PC screen font file, see WritePSF.
func (f *Font) SavePSF(name string, opts PSFOptions) error {
	b, err := f.WritePSF(opts)
	if err != nil {
		return err
	}
	return writeFile(name, b)
}
