package vfont

import (
	"fmt"
	"math"

	"github.com/tdewolff/parse/v2"
)

// Raster file layout, all fields little endian:
//
//	magic    [4]byte "VFNT"
//	version  uint16  1
//	flags    uint16  0
//	count    uint32  number of glyphs
//	width    uint16  0 means 8
//	height   uint16  0 means the height is given by the caller
//	bitmaps  count * height * ceil(width/8) bytes
const (
	rasterMagic      = "VFNT"
	rasterVersion    = 1
	rasterHeaderSize = 16
)

// LoadRaster reads a raster font file, see ParseRaster.
func LoadRaster(name string, heightHint uint32) (*Font, error) {
	b, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return ParseRaster(b, heightHint)
}

// ParseRaster parses a packed raster font. The height hint is used only when the header doesn't store the glyph height, zero means no hint.
func ParseRaster(b []byte, heightHint uint32) (*Font, error) {
	if len(b) < rasterHeaderSize {
		if len(b) < 4 || string(b[:4]) != rasterMagic {
			return nil, fmt.Errorf("raster: bad magic: %w", ErrInvalidFontData)
		}
		return nil, fmt.Errorf("raster: header: %w", ErrTruncated)
	} else if uint64(math.MaxUint32) < uint64(len(b)) {
		return nil, ErrExceedsMemory
	}

	r := parse.NewBinaryReaderLE(b)
	if string(r.ReadBytes(4)) != rasterMagic {
		return nil, fmt.Errorf("raster: bad magic: %w", ErrInvalidFontData)
	}
	version := r.ReadUint16()
	flags := r.ReadUint16()
	numGlyphs := r.ReadUint32()
	width := uint32(r.ReadUint16())
	height := uint32(r.ReadUint16())
	if r.EOF() {
		return nil, fmt.Errorf("raster: header: %w", ErrTruncated)
	} else if version != rasterVersion {
		return nil, fmt.Errorf("raster: unsupported version %d: %w", version, ErrInvalidFontData)
	} else if flags != 0 {
		return nil, fmt.Errorf("raster: bad flags 0x%04X: %w", flags, ErrInvalidFontData)
	}
	if width == 0 {
		width = 8
	}
	if height == 0 {
		if heightHint == 0 {
			return nil, fmt.Errorf("raster: glyph height not stored and no hint given: %w", ErrInvalidFontData)
		}
		height = heightHint
	}
	return parseBitmaps("raster", b[rasterHeaderSize:], Size{width, height}, numGlyphs, true)
}

// parseBitmaps splits b into n row-padded glyphs of the given size. If exact is set, trailing data is an error.
func parseBitmaps(format string, b []byte, size Size, n uint32, exact bool) (*Font, error) {
	glyphLen, err := bitmapLen(size, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %d glyphs of %v: %w", format, n, size, err)
	}
	total := uint64(glyphLen) * uint64(n)
	if uint64(len(b)) < total {
		return nil, fmt.Errorf("%s: %d glyphs of %v need %d bytes, have %d: %w", format, n, size, total, len(b), ErrTruncated)
	} else if exact && total < uint64(len(b)) {
		return nil, fmt.Errorf("%s: %d bytes of trailing data: %w", format, uint64(len(b))-total, ErrInvalidFontData)
	}

	f := &Font{
		Glyphs: make([]Glyph, n),
	}
	for i := range f.Glyphs {
		f.Glyphs[i], _ = DecodeRowPadded(size, b[uint32(i)*glyphLen:])
	}
	return f, nil
}

// WriteRaster encodes the font as a packed raster font. All glyphs must have the same size, which must fit in 16 bits per dimension.
func (f *Font) WriteRaster() ([]byte, error) {
	size, err := f.uniformSize()
	if err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	} else if size.W == 0 || math.MaxUint16 < size.W || math.MaxUint16 < size.H {
		return nil, fmt.Errorf("raster: unsupported glyph size %v: %w", size, ErrInvalidArgument)
	} else if math.MaxUint32 < uint64(len(f.Glyphs)) {
		return nil, fmt.Errorf("raster: too many glyphs: %w", ErrInvalidArgument)
	}

	glyphLen, err := bitmapLen(size, uint32(len(f.Glyphs)))
	if err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	}
	b := make([]byte, 0, rasterHeaderSize+int(glyphLen)*len(f.Glyphs))
	b = append(b, rasterMagic...)
	b = appendUint16LE(b, rasterVersion)
	b = appendUint16LE(b, 0) // flags
	b = appendUint32LE(b, uint32(len(f.Glyphs)))
	b = appendUint16LE(b, uint16(size.W))
	b = appendUint16LE(b, uint16(size.H))
	for _, g := range f.Glyphs {
		b = append(b, g.RowPadded()...)
	}
	return b, nil
}

// SaveRaster writes the font to a raster font file, see WriteRaster.
func (f *Font) SaveRaster(name string) error {
	b, err := f.WriteRaster()
	if err != nil {
		return err
	}
	return writeFile(name, b)
}

// LoadRawFNT reads a headerless console font, see ParseRawFNT.
func LoadRawFNT(name string, heightHint uint32) (*Font, error) {
	b, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return ParseRawFNT(b, heightHint)
}

// ParseRawFNT parses a classic headerless console font: 256 glyphs, 8 pixels wide, one byte per row. The height is the hint if given, otherwise the file size divided by 256.
func ParseRawFNT(b []byte, heightHint uint32) (*Font, error) {
	height := heightHint
	if height == 0 {
		if len(b) == 0 || len(b)%256 != 0 || 256*math.MaxUint16 < len(b) {
			return nil, fmt.Errorf("fnt: file size %d is not a multiple of 256: %w", len(b), ErrInvalidFontData)
		}
		height = uint32(len(b) / 256)
	}
	return parseBitmaps("fnt", b, Size{8, height}, 256, true)
}

// WriteRawFNT encodes the font as a headerless console font. The font must have 256 glyphs that are 8 pixels wide.
func (f *Font) WriteRawFNT() ([]byte, error) {
	size, err := f.uniformSize()
	if err != nil {
		return nil, fmt.Errorf("fnt: %w", err)
	} else if len(f.Glyphs) != 256 || size.W != 8 {
		return nil, fmt.Errorf("fnt: need 256 glyphs of width 8, have %d of %v: %w", len(f.Glyphs), size, ErrInvalidArgument)
	}
	b := make([]byte, 0, 256*size.H)
	for _, g := range f.Glyphs {
		b = append(b, g.RowPadded()...)
	}
	return b, nil
}

// SaveRawFNT writes the font to a headerless console font file, see WriteRawFNT.
func (f *Font) SaveRawFNT(name string) error {
	b, err := f.WriteRawFNT()
	if err != nil {
		return err
	}
	return writeFile(name, b)
}
