package vfont

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// Size is a width and height in pixels.
type Size struct {
	W, H uint32
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// Pos is an offset in pixels. It may be negative.
type Pos struct {
	X, Y int
}

// Glyph is a monochrome bitmap of a fixed size. Data holds one bit per pixel, row-major, with the most significant bit as the leftmost pixel and every row padded to a whole byte.
type Glyph struct {
	Size Size
	Data []byte
}

// NewGlyph returns an all-zero glyph of the given size. It panics with ErrExceedsMemory if the bitmap would be larger than MaxMemory, use CheckSize for sizes that come from input.
func NewGlyph(size Size) Glyph {
	n, err := glyphLen(size)
	if err != nil {
		panic(fmt.Errorf("glyph %v: %w", size, err))
	}
	return Glyph{
		Size: size,
		Data: make([]byte, n),
	}
}

// CheckSize returns ErrExceedsMemory if a glyph of the given size cannot be allocated within MaxMemory.
func CheckSize(size Size) error {
	if _, err := glyphLen(size); err != nil {
		return fmt.Errorf("glyph %v: %w", size, err)
	}
	return nil
}

// DecodeRowPadded returns a glyph of the given size whose bitmap is the first H*ceil(W/8) bytes of b. The bytes are copied.
func DecodeRowPadded(size Size, b []byte) (Glyph, error) {
	n, err := glyphLen(size)
	if err != nil {
		return Glyph{}, fmt.Errorf("glyph %v: %w", size, err)
	} else if len(b) < n {
		return Glyph{}, fmt.Errorf("glyph %v: need %d bytes, have %d: %w", size, n, len(b), ErrTruncated)
	}
	g := Glyph{
		Size: size,
		Data: make([]byte, n),
	}
	copy(g.Data, b)
	return g, nil
}

// RowPadded returns the row-padded bitmap. This is the stored representation, it is not copied.
func (g Glyph) RowPadded() []byte {
	return g.Data
}

// Stride returns the number of bytes per row.
func (g Glyph) Stride() int {
	return int(rowStride(g.Size.W))
}

// At returns whether the pixel at (x,y) is set. Pixels outside the glyph are never set.
func (g Glyph) At(x, y int) bool {
	if x < 0 || y < 0 || int(g.Size.W) <= x || int(g.Size.H) <= y {
		return false
	}
	return g.Data[y*g.Stride()+x/8]&(0x80>>(x%8)) != 0
}

// Set sets or clears the pixel at (x,y). Pixels outside the glyph are ignored.
func (g Glyph) Set(x, y int, v bool) {
	if x < 0 || y < 0 || int(g.Size.W) <= x || int(g.Size.H) <= y {
		return
	}
	i := y*g.Stride() + x/8
	if v {
		g.Data[i] |= 0x80 >> (x % 8)
	} else {
		g.Data[i] &^= 0x80 >> (x % 8)
	}
}

// Clone returns a deep copy.
func (g Glyph) Clone() Glyph {
	return Glyph{
		Size: g.Size,
		Data: bytes.Clone(g.Data),
	}
}

// Equal returns true if both glyphs have the same size and bitmap.
func (g Glyph) Equal(h Glyph) bool {
	return g.Size == h.Size && bytes.Equal(g.Data, h.Data)
}

// IsBlank returns true if no pixel is set.
func (g Glyph) IsBlank() bool {
	for _, c := range g.Data {
		if c != 0 {
			return false
		}
	}
	return true
}

// TextRows renders the glyph as one line per row, with "##" for a set pixel and ".." for a clear one. Every line ends in a newline.
func (g Glyph) TextRows() string {
	sb := strings.Builder{}
	sb.Grow(int(g.Size.H) * (2*int(g.Size.W) + 1))
	for y := 0; y < int(g.Size.H); y++ {
		for x := 0; x < int(g.Size.W); x++ {
			if g.At(x, y) {
				sb.WriteString("##")
			} else {
				sb.WriteString("..")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseTextRows is the inverse of TextRows. All lines must have the same even length and consist of "##" and ".." pairs.
func ParseTextRows(s string) (Glyph, error) {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return NewGlyph(Size{}), nil
	}
	lines := strings.Split(s, "\n")
	width := len(strings.TrimSuffix(lines[0], "\r"))
	if width%2 != 0 {
		return Glyph{}, fmt.Errorf("text rows: odd line length: %w", ErrInvalidFontData)
	}

	size := Size{uint32(width / 2), uint32(len(lines))}
	if err := CheckSize(size); err != nil {
		return Glyph{}, fmt.Errorf("text rows: %w", err)
	}
	g := NewGlyph(size)
	for y, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if len(line) != width {
			return Glyph{}, fmt.Errorf("text rows: row %d has length %d instead of %d: %w", y, len(line), width, ErrInvalidFontData)
		}
		for x := 0; x < width/2; x++ {
			switch line[2*x : 2*x+2] {
			case "##":
				g.Set(x, y, true)
			case "..":
			default:
				return Glyph{}, fmt.Errorf("text rows: bad pixel %q at %d,%d: %w", line[2*x:2*x+2], x, y, ErrInvalidFontData)
			}
		}
	}
	return g, nil
}

// Blit returns a new glyph of size canvas with a sel-sized region copied from the receiver. For every (x,y) within sel, the source pixel at srcOffset+(x,y) is copied to canvasOffset+(x,y) if both positions are in bounds. All other pixels of the canvas are clear. The receiver is not modified. Selections are clipped silently, only a canvas larger than MaxMemory is an error.
func (g Glyph) Blit(sel Size, canvasOffset Pos, canvas Size, srcOffset Pos) (Glyph, error) {
	if err := CheckSize(canvas); err != nil {
		return Glyph{}, fmt.Errorf("blit: %w", err)
	}
	dst := NewGlyph(canvas)

	// clip the selection against both the source and the destination
	x0, y0 := 0, 0
	x1, y1 := int(sel.W), int(sel.H)
	x0 = max(x0, -srcOffset.X, -canvasOffset.X)
	y0 = max(y0, -srcOffset.Y, -canvasOffset.Y)
	x1 = min(x1, int(g.Size.W)-srcOffset.X, int(canvas.W)-canvasOffset.X)
	y1 = min(y1, int(g.Size.H)-srcOffset.Y, int(canvas.H)-canvasOffset.Y)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if g.At(srcOffset.X+x, srcOffset.Y+y) {
				dst.Set(canvasOffset.X+x, canvasOffset.Y+y, true)
			}
		}
	}
	return dst, nil
}

// Upscale returns a new glyph where every pixel is replicated into a factor.W by factor.H block.
func (g Glyph) Upscale(factor Size) (Glyph, error) {
	if factor.W == 0 || factor.H == 0 {
		return Glyph{}, fmt.Errorf("upscale by %v: %w", factor, ErrInvalidArgument)
	}
	w, h := uint64(g.Size.W)*uint64(factor.W), uint64(g.Size.H)*uint64(factor.H)
	if math.MaxUint32 < w || math.MaxUint32 < h {
		return Glyph{}, fmt.Errorf("upscale by %v: %w", factor, ErrExceedsMemory)
	}
	size := Size{uint32(w), uint32(h)}
	if err := CheckSize(size); err != nil {
		return Glyph{}, fmt.Errorf("upscale by %v: %w", factor, err)
	}

	dst := NewGlyph(size)
	fx, fy := int(factor.W), int(factor.H)
	for y := 0; y < int(g.Size.H); y++ {
		for x := 0; x < int(g.Size.W); x++ {
			if !g.At(x, y) {
				continue
			}
			for j := 0; j < fy; j++ {
				for i := 0; i < fx; i++ {
					dst.Set(x*fx+i, y*fy+j, true)
				}
			}
		}
	}
	return dst, nil
}

// Transform applies t to the glyph in place. The index is the glyph's position in its font and is passed on to t. If t changes the glyph's size, the glyph is left untouched and ErrInvalidArgument is returned.
func (g *Glyph) Transform(t Transform, index int) error {
	h := g.Clone()
	t.TransformGlyph(index, &h)
	if h.Size != g.Size || uint64(len(h.Data)) != rowStride(g.Size.W)*uint64(g.Size.H) {
		return fmt.Errorf("transform changed glyph %d from %v to %v: %w", index, g.Size, h.Size, ErrInvalidArgument)
	}
	*g = h
	return nil
}
