package vfont

import (
	"bytes"
	"fmt"
	"sort"
	stdStrconv "strconv"
	"strings"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2/strconv"
	"golang.org/x/text/encoding/charmap"
)

// UnicodeMap associates glyph indices with Unicode code points. An index may stand for several code points, but every code point resolves to at most one index. Both directions are updated together by Insert.
//
// A UnicodeMap may be shared between fonts. It is not safe for concurrent mutation, so treat it as read-only once populated.
type UnicodeMap struct {
	i2u map[int][]rune // sorted
	u2i map[rune]int
}

// NewUnicodeMap returns an empty map.
func NewUnicodeMap() *UnicodeMap {
	return &UnicodeMap{
		i2u: map[int][]rune{},
		u2i: map[rune]int{},
	}
}

// Insert maps index to r and r to index. It returns false if nothing was added, either because the pair already exists or because r is already mapped to another index, in which case that mapping is kept. The zero UnicodeMap is ready to use, a nil map adds nothing.
func (m *UnicodeMap) Insert(index int, r rune) bool {
	if m == nil {
		return false
	} else if _, ok := m.u2i[r]; ok {
		return false
	}
	if m.u2i == nil {
		m.u2i = map[rune]int{}
		m.i2u = map[int][]rune{}
	}
	m.u2i[r] = index
	rs := m.i2u[index]
	pos := sort.Search(len(rs), func(k int) bool { return r <= rs[k] })
	rs = append(rs, 0)
	copy(rs[pos+1:], rs[pos:])
	rs[pos] = r
	m.i2u[index] = rs
	return true
}

// Codepoints returns the code points mapped to index in ascending order. It returns an empty slice if there are none.
func (m *UnicodeMap) Codepoints(index int) []rune {
	if m == nil {
		return []rune{}
	}
	return append([]rune{}, m.i2u[index]...)
}

// Primary returns the lowest code point mapped to index.
func (m *UnicodeMap) Primary(index int) (rune, bool) {
	if m == nil {
		return 0, false
	}
	if rs := m.i2u[index]; 0 < len(rs) {
		return rs[0], true
	}
	return 0, false
}

// Index returns the glyph index mapped to r. The boolean is false if r is not mapped, which is distinct from index 0.
func (m *UnicodeMap) Index(r rune) (int, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.u2i[r]
	return i, ok
}

// Indices returns all glyph indices that have at least one code point, in ascending order.
func (m *UnicodeMap) Indices() []int {
	if m == nil {
		return nil
	}
	indices := make([]int, 0, len(m.i2u))
	for i := range m.i2u {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// Len returns the number of mapped code points.
func (m *UnicodeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.u2i)
}

// CharmapUnicodeMap returns the mapping of a 256 glyph codepage font, where glyph i shows the character that cm decodes byte i to.
func CharmapUnicodeMap(cm *charmap.Charmap) *UnicodeMap {
	m := NewUnicodeMap()
	for i := 0; i < 256; i++ {
		if r := cm.DecodeByte(byte(i)); r != utf8.RuneError {
			m.Insert(i, r)
		}
	}
	return m
}

// LoadUnicodeMap reads a mapping file, see ParseUnicodeMap.
func LoadUnicodeMap(name string) (*UnicodeMap, []*ParseWarning, error) {
	b, err := readFile(name)
	if err != nil {
		return nil, nil, err
	}
	return ParseUnicodeMap(b)
}

// ParseUnicodeMap parses a mapping description. Every line holds a glyph index followed by one or more code points, as in
//
//	0x41	U+0041 U+0391
//	65-70	U+0041-U+0046
//
// Indices are decimal or 0x-prefixed hexadecimal, code points are U+ or 0x-prefixed hexadecimal. An index range must be paired with a single code point range of the same length. Text after # is a comment. Malformed lines are skipped and returned as warnings.
func ParseUnicodeMap(b []byte) (*UnicodeMap, []*ParseWarning, error) {
	b, err := decodeText(b)
	if err != nil {
		return nil, nil, err
	}

	m := NewUnicodeMap()
	var warnings []*ParseWarning
	scanner := newLineScanner(b)
	j := 0 // line number
	for scanner.Scan() {
		j++
		line := scanner.Text()
		text := line
		if hash := strings.IndexByte(line, '#'); hash != -1 {
			line = line[:hash]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		} else if len(fields) == 1 {
			warnings = warn(warnings, "map", j, text, fmt.Errorf("missing code point"))
			continue
		}
		if err := parseUnicodeMapLine(m, fields); err != nil {
			warnings = warn(warnings, "map", j, text, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return m, warnings, nil
}

func parseUnicodeMapLine(m *UnicodeMap, fields []string) error {
	first, last, err := parseRange(fields[0], parseIndex)
	if err != nil {
		return err
	}

	type pair struct {
		index int
		r     rune
	}
	var pairs []pair
	if first != last {
		if len(fields) != 2 {
			return fmt.Errorf("index range needs exactly one code point range")
		}
		lo, hi, err := parseRange(fields[1], parseCodepoint)
		if err != nil {
			return err
		} else if hi-lo != last-first {
			return fmt.Errorf("index range %d-%d and code point range %U-%U differ in length", first, last, lo, hi)
		}
		for i := first; i <= last; i++ {
			pairs = append(pairs, pair{i, rune(lo + i - first)})
		}
	} else {
		for _, field := range fields[1:] {
			lo, hi, err := parseRange(field, parseCodepoint)
			if err != nil {
				return err
			}
			for r := lo; r <= hi; r++ {
				pairs = append(pairs, pair{first, rune(r)})
			}
		}
	}

	// validate all before inserting anything
	for _, p := range pairs {
		if i, ok := m.Index(p.r); ok && i != p.index {
			return fmt.Errorf("code point %U already mapped to glyph %d", p.r, i)
		}
	}
	for _, p := range pairs {
		m.Insert(p.index, p.r)
	}
	return nil
}

// parseRange parses "a" or "a-b" where b is not smaller than a.
func parseRange(s string, parse func(string) (int, error)) (int, int, error) {
	sFirst, sLast, isRange := strings.Cut(s, "-")
	first, err := parse(sFirst)
	if err != nil {
		return 0, 0, err
	} else if !isRange {
		return first, first, nil
	}
	last, err := parse(sLast)
	if err != nil {
		return 0, 0, err
	} else if last < first {
		return 0, 0, fmt.Errorf("bad range %q", s)
	} else if 0x10000 < last-first {
		return 0, 0, fmt.Errorf("range %q too large", s)
	}
	return first, last, nil
}

func parseIndex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := stdStrconv.ParseUint(s[2:], 16, 31)
		if err != nil {
			return 0, fmt.Errorf("bad index %q", s)
		}
		return int(v), nil
	}
	v, n := strconv.ParseInt([]byte(s))
	if n == 0 || n != len(s) || v < 0 || 1<<31 <= v {
		return 0, fmt.Errorf("bad index %q", s)
	}
	return int(v), nil
}

func parseCodepoint(s string) (int, error) {
	var hex string
	if strings.HasPrefix(s, "U+") || strings.HasPrefix(s, "u+") || strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		hex = s[2:]
	} else {
		return 0, fmt.Errorf("bad code point %q", s)
	}
	v, err := stdStrconv.ParseUint(hex, 16, 32)
	if err != nil || utf8.MaxRune < v {
		return 0, fmt.Errorf("bad code point %q", s)
	}
	return int(v), nil
}

// Bytes returns the mapping in the format read by ParseUnicodeMap, one line per glyph index.
func (m *UnicodeMap) Bytes() []byte {
	var buf bytes.Buffer
	for _, i := range m.Indices() {
		fmt.Fprintf(&buf, "0x%02x\t", i)
		for k, r := range m.i2u[i] {
			if k != 0 {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "U+%04X", r)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Save writes the mapping to a file, see Bytes.
func (m *UnicodeMap) Save(name string) error {
	return writeFile(name, m.Bytes())
}
