package vfont

import (
	"fmt"
)

// DefaultSize is the glyph size of a blank font.
var DefaultSize = Size{8, 16}

// Font is an ordered sequence of glyphs, where a glyph's index is its position, and an optional mapping to Unicode. The mapping may refer to indices that are out of range; those are simply not resolved.
//
// A Font is not safe for concurrent mutation.
type Font struct {
	Glyphs  []Glyph
	Unicode *UnicodeMap
}

// NewBlankFont returns a font with 256 blank glyphs of DefaultSize.
func NewBlankFont() *Font {
	f := &Font{}
	f.InitBlank()
	return f
}

// InitBlank replaces all glyphs by 256 blank glyphs of DefaultSize.
func (f *Font) InitBlank() {
	f.Glyphs = make([]Glyph, 256)
	for i := range f.Glyphs {
		f.Glyphs[i] = NewGlyph(DefaultSize)
	}
}

// Len returns the number of glyphs.
func (f *Font) Len() int {
	return len(f.Glyphs)
}

// Append adds a glyph and returns its index.
func (f *Font) Append(g Glyph) int {
	f.Glyphs = append(f.Glyphs, g)
	return len(f.Glyphs) - 1
}

// Glyph returns the glyph at index i.
func (f *Font) Glyph(i int) (Glyph, bool) {
	if i < 0 || len(f.Glyphs) <= i {
		return Glyph{}, false
	}
	return f.Glyphs[i], true
}

// Index returns the glyph index for r. It only succeeds if r is mapped to an index that exists in the font.
func (f *Font) Index(r rune) (int, bool) {
	i, ok := f.Unicode.Index(r)
	if !ok || len(f.Glyphs) <= i {
		return 0, false
	}
	return i, true
}

// Codepoints returns the code points of glyph i in ascending order.
func (f *Font) Codepoints(i int) []rune {
	return f.Unicode.Codepoints(i)
}

// uniformSize returns the size shared by all glyphs. Formats that store a single glyph size require it.
func (f *Font) uniformSize() (Size, error) {
	if len(f.Glyphs) == 0 {
		return DefaultSize, nil
	}
	size := f.Glyphs[0].Size
	for i, g := range f.Glyphs[1:] {
		if g.Size != size {
			return Size{}, fmt.Errorf("glyph %d has size %v instead of %v: %w", i+1, g.Size, size, ErrInvalidArgument)
		}
	}
	return size, nil
}

// Blit replaces every glyph by its blit, see Glyph.Blit. On error the font is unchanged.
func (f *Font) Blit(sel Size, canvasOffset Pos, canvas Size, srcOffset Pos) error {
	if err := CheckSize(canvas); err != nil {
		return fmt.Errorf("blit: %w", err)
	}
	for i, g := range f.Glyphs {
		f.Glyphs[i], _ = g.Blit(sel, canvasOffset, canvas, srcOffset)
	}
	return nil
}

// Upscale replaces every glyph by its upscaled version, see Glyph.Upscale. On error the font is unchanged.
func (f *Font) Upscale(factor Size) error {
	glyphs := make([]Glyph, len(f.Glyphs))
	for i, g := range f.Glyphs {
		var err error
		if glyphs[i], err = g.Upscale(factor); err != nil {
			return err
		}
	}
	f.Glyphs = glyphs
	return nil
}

// Transform applies t to every glyph. On error the font is unchanged.
func (f *Font) Transform(t Transform) error {
	glyphs := make([]Glyph, len(f.Glyphs))
	for i, g := range f.Glyphs {
		if err := g.Transform(t, i); err != nil {
			return err
		}
		glyphs[i] = g
	}
	f.Glyphs = glyphs
	return nil
}
