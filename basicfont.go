package vfont

import (
	"fmt"

	"golang.org/x/image/font/basicfont"
)

// FromBasicFace converts a fixed-size face such as basicfont.Face7x13 into a font. Glyphs are Width pixels wide and Ascent+Descent pixels high, pixels with more than half coverage are set, and the face's rune ranges become the UnicodeMap.
func FromBasicFace(face *basicfont.Face) (*Font, error) {
	if face == nil || face.Mask == nil {
		return nil, fmt.Errorf("basicfont: no mask: %w", ErrInvalidArgument)
	}
	w, h := face.Width, face.Ascent+face.Descent
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("basicfont: bad glyph size %dx%d: %w", w, h, ErrInvalidFontData)
	}

	n := 0
	for _, rng := range face.Ranges {
		if rng.High < rng.Low || rng.Offset < 0 {
			return nil, fmt.Errorf("basicfont: bad range %U-%U: %w", rng.Low, rng.High, ErrInvalidFontData)
		}
		n = max(n, rng.Offset+int(rng.High-rng.Low))
	}
	size := Size{uint32(w), uint32(h)}
	if _, err := bitmapLen(size, uint32(n)); err != nil {
		return nil, fmt.Errorf("basicfont: %w", err)
	}
	bounds := face.Mask.Bounds()
	if bounds.Dx() < w || bounds.Dy() < n*h {
		return nil, fmt.Errorf("basicfont: mask of %v is too small for %d glyphs: %w", bounds.Size(), n, ErrTruncated)
	}

	f := &Font{
		Glyphs:  make([]Glyph, n),
		Unicode: NewUnicodeMap(),
	}
	for i := range f.Glyphs {
		g := NewGlyph(size)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				_, _, _, a := face.Mask.At(bounds.Min.X+x, bounds.Min.Y+i*h+y).RGBA()
				if 0x8000 <= a {
					g.Set(x, y, true)
				}
			}
		}
		f.Glyphs[i] = g
	}
	for _, rng := range face.Ranges {
		for r := rng.Low; r < rng.High; r++ {
			f.Unicode.Insert(rng.Offset+int(r-rng.Low), r)
		}
	}
	return f, nil
}
