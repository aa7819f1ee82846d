package vfont

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// MaxMemory is the maximum memory that can be allocated for the glyph bitmaps of a font.
var MaxMemory uint32 = 30 * 1024 * 1024

// ErrExceedsMemory is returned if the font would allocate more than MaxMemory.
var ErrExceedsMemory = fmt.Errorf("memory limit exceded")

// ErrInvalidFontData is returned if the font is malformed: bad magic, bad header field, or inconsistent sizes.
var ErrInvalidFontData = fmt.Errorf("invalid font data")

// ErrTruncated is returned if the input holds fewer bytes than its header promises.
var ErrTruncated = fmt.Errorf("truncated input")

// ErrInvalidArgument is returned for arguments that cannot be honoured, such as a zero upscale factor.
var ErrInvalidArgument = fmt.Errorf("invalid argument")

// IOError is returned when opening, reading, or writing a file or directory fails.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioError(op, path string, err error) error {
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{op, path, err}
}

// ParseWarning is a recoverable problem with a single line of a text format. The line is skipped and loading continues.
type ParseWarning struct {
	Line int
	Text string
	Err  error
}

func (w *ParseWarning) Error() string {
	return fmt.Sprintf("line %d: %v", w.Line, w.Err)
}

func (w *ParseWarning) Unwrap() error {
	return w.Err
}

// warn records a parse warning and logs it.
func warn(warnings []*ParseWarning, format string, line int, text string, err error) []*ParseWarning {
	Logger().Warn("skipping malformed line", "format", format, "line", line, "err", err)
	return append(warnings, &ParseWarning{Line: line, Text: text, Err: err})
}

// rowStride returns the number of bytes of a row of width pixels.
func rowStride(width uint32) uint64 {
	return (uint64(width) + 7) / 8
}

// glyphLen returns the number of bytes of a row-padded bitmap of the given size, or ErrExceedsMemory if that is more than MaxMemory.
func glyphLen(size Size) (int, error) {
	n := rowStride(size.W) * uint64(size.H) // at most 2^61
	if uint64(MaxMemory) < n || uint64(math.MaxInt) < n {
		return 0, ErrExceedsMemory
	}
	return int(n), nil
}

// bitmapLen returns the number of bytes of one row-padded bitmap of the given size, or ErrExceedsMemory if n of them don't fit in MaxMemory.
func bitmapLen(size Size, n uint32) (uint32, error) {
	l, err := glyphLen(size)
	if err != nil {
		return 0, err
	} else if uint64(MaxMemory) < uint64(l)*uint64(n) {
		return 0, ErrExceedsMemory
	}
	return uint32(l), nil
}

// newLineScanner returns a line scanner over b whose buffer can hold any line of b, so that long lines reach the parser instead of failing the scan.
func newLineScanner(b []byte) *bufio.Scanner {
	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 0, 4096), max(len(b)+1, 4096))
	return scanner
}

func appendUint16LE(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func appendUint32LE(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}
