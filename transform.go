package vfont

import (
	"sort"
	"sync"
)

// Transform is an in-place, size-preserving per-glyph operation. It receives the glyph's index in the font.
type Transform interface {
	TransformGlyph(index int, g *Glyph)
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(index int, g *Glyph)

// TransformGlyph calls f(index, g).
func (f TransformFunc) TransformGlyph(index int, g *Glyph) {
	f(index, g)
}

// Identity leaves every glyph as it is.
var Identity Transform = TransformFunc(func(int, *Glyph) {})

// LineGraphics mimics the VGA line graphics enable bit: for the box drawing characters 0xC0 through 0xDF of a codepage font, the last column is made a copy of the column before it, so that horizontal lines connect across a 9 pixel wide character cell. Glyphs narrower than two pixels are unchanged. Applying it twice gives the same result as applying it once.
var LineGraphics Transform = TransformFunc(func(index int, g *Glyph) {
	if index < 0xC0 || 0xDF < index || g.Size.W < 2 {
		return
	}
	x := int(g.Size.W) - 1
	for y := 0; y < int(g.Size.H); y++ {
		g.Set(x, y, g.At(x-1, y))
	}
})

var transformsMu sync.RWMutex
var transforms = map[string]Transform{
	"identity": Identity,
	"lge":      LineGraphics,
}

// RegisterTransform registers t under name, replacing any transform previously registered under that name.
func RegisterTransform(name string, t Transform) {
	transformsMu.Lock()
	defer transformsMu.Unlock()
	transforms[name] = t
}

// LookupTransform returns the transform registered under name.
func LookupTransform(name string) (Transform, bool) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	t, ok := transforms[name]
	return t, ok
}

// TransformNames returns the names of all registered transforms in sorted order.
func TransformNames() []string {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
