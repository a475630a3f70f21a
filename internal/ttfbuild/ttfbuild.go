/*
Package ttfbuild assembles small TrueType fonts in memory, for testing.

Fonts are described by a Font value: a list of glyphs (simple or composite),
their metrics, and a character map. Bytes returns a complete font binary
containing the tables head, hhea, maxp, cmap, hmtx, loca and glyf (plus
optional name and extra tables). Individual tables may be replaced by raw
bytes to construct broken fonts.

	f := ttfbuild.Font{UnitsPerEm: 1000}
	f.Glyphs = []ttfbuild.Glyph{{Advance: 500}, {Advance: 600, Contours: ttfbuild.Box(0, 0, 500, 700)}}
	f.Map('A', 1)
	data := f.Bytes()
*/
package ttfbuild

import (
	"encoding/binary"
	"math"
	"slices"
	"sort"
)

// Point is an outline point in font units.
type Point struct {
	X, Y int16
	On   bool
}

// Component is a component reference of a composite glyph.
type Component struct {
	Glyph       uint16
	DX, DY      int16
	MatchPoints bool      // DX, DY are parent and child point numbers
	Scale       []float32 // nil, 1, 2 or 4 entries (F2Dot14)
	Flags       uint16    // additional flags, e.g. 0x0800 for scaled offsets
}

// Glyph describes one glyph. A glyph with components is composite,
// otherwise it is simple (possibly empty).
type Glyph struct {
	Advance    uint16
	LSB        int16
	Contours   [][]Point
	Components []Component
	Raw        []byte // if not nil, used verbatim as glyf record
}

// Font describes a font to build.
type Font struct {
	FontType         uint32 // 0 means 0x00010000
	UnitsPerEm       uint16 // 0 means 1000
	Ascender         int16
	Descender        int16
	LineGap          int16
	LongLoca         bool
	NumberOfHMetrics int // 0 means one record per glyph
	Glyphs           []Glyph
	Names            map[uint16]string // name ID → string, encoded for platform 3/1
	Tables           map[string][]byte // raw tables, replacing generated ones
	Omit             []string          // tables to leave out
	cmap             map[rune]uint16
}

// Map adds a code-point → glyph mapping to the font's character map.
func (f *Font) Map(r rune, g uint16) {
	if f.cmap == nil {
		f.cmap = make(map[rune]uint16)
	}
	f.cmap[r] = g
}

// Box returns a single closed rectangular contour, clockwise in font units
// (y up), i.e. an outer contour.
func Box(x0, y0, x1, y1 int16) [][]Point {
	return [][]Point{{
		{x0, y0, true}, {x0, y1, true}, {x1, y1, true}, {x1, y0, true},
	}}
}

// Hole returns a counter-clockwise rectangular contour, suitable as the inner
// contour of a Box.
func Hole(x0, y0, x1, y1 int16) [][]Point {
	return [][]Point{{
		{x0, y0, true}, {x1, y0, true}, {x1, y1, true}, {x0, y1, true},
	}}
}

// --- Assembly --------------------------------------------------------------

// Bytes returns the binary font.
func (f *Font) Bytes() []byte {
	upem := f.UnitsPerEm
	if upem == 0 {
		upem = 1000
	}
	glyf, loca := f.glyfLoca()
	tables := map[string][]byte{
		"head": f.head(upem),
		"hhea": f.hhea(),
		"maxp": f.maxp(),
		"cmap": CMap(Subtable{PlatformID: 3, EncodingID: 1, Data: Format4(f.cmap)}),
		"hmtx": f.hmtx(),
		"loca": loca,
		"glyf": glyf,
	}
	if len(f.Names) > 0 {
		tables["name"] = nameTable(f.Names)
	}
	for tag, b := range f.Tables {
		tables[tag] = b
	}
	for _, tag := range f.Omit {
		delete(tables, tag)
	}
	fontType := f.FontType
	if fontType == 0 {
		fontType = 0x00010000
	}
	return Assemble(fontType, tables)
}

// Assemble writes a table directory followed by the tables, each aligned to
// 4 bytes. Table records are sorted by tag.
func Assemble(fontType uint32, tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	n := len(tags)
	entrySelector := 0
	for 1<<(entrySelector+1) <= n {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 16
	var b []byte
	b = binary.BigEndian.AppendUint32(b, fontType)
	b = binary.BigEndian.AppendUint16(b, uint16(n))
	b = binary.BigEndian.AppendUint16(b, uint16(searchRange))
	b = binary.BigEndian.AppendUint16(b, uint16(entrySelector))
	b = binary.BigEndian.AppendUint16(b, uint16(n*16-searchRange))
	offset := 12 + 16*n
	for _, tag := range tags {
		t := tables[tag]
		b = append(b, (tag + "    ")[:4]...)
		b = binary.BigEndian.AppendUint32(b, 0) // checksum
		b = binary.BigEndian.AppendUint32(b, uint32(offset))
		b = binary.BigEndian.AppendUint32(b, uint32(len(t)))
		offset += pad4(len(t))
	}
	for _, tag := range tags {
		t := tables[tag]
		b = append(b, t...)
		b = append(b, make([]byte, pad4(len(t))-len(t))...)
	}
	return b
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

func (f *Font) head(upem uint16) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, 0x00010000) // version
	b = binary.BigEndian.AppendUint32(b, 0x00010000) // font revision
	b = binary.BigEndian.AppendUint32(b, 0)          // checksum adjustment
	b = binary.BigEndian.AppendUint32(b, 0x5F0F3CF5) // magic number
	b = binary.BigEndian.AppendUint16(b, 0x000B)     // flags
	b = binary.BigEndian.AppendUint16(b, upem)
	b = append(b, make([]byte, 16)...) // created, modified
	xmin, ymin, xmax, ymax := f.bbox()
	b = appendI16(b, xmin, ymin, xmax, ymax)
	b = binary.BigEndian.AppendUint16(b, 0) // mac style
	b = binary.BigEndian.AppendUint16(b, 8) // lowest rec. PPEM
	b = appendI16(b, 2)                     // font direction hint
	if f.LongLoca {
		b = binary.BigEndian.AppendUint16(b, 1)
	} else {
		b = binary.BigEndian.AppendUint16(b, 0)
	}
	b = binary.BigEndian.AppendUint16(b, 0) // glyph data format
	return b
}

func (f *Font) bbox() (xmin, ymin, xmax, ymax int16) {
	first := true
	for _, g := range f.Glyphs {
		for _, c := range g.Contours {
			for _, p := range c {
				if first {
					xmin, ymin, xmax, ymax = p.X, p.Y, p.X, p.Y
					first = false
				}
				xmin, ymin = min(xmin, p.X), min(ymin, p.Y)
				xmax, ymax = max(xmax, p.X), max(ymax, p.Y)
			}
		}
	}
	return
}

func (f *Font) hhea() []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, 0x00010000)
	b = appendI16(b, f.Ascender, f.Descender, f.LineGap)
	var awMax uint16
	for _, g := range f.Glyphs {
		awMax = max(awMax, g.Advance)
	}
	b = binary.BigEndian.AppendUint16(b, awMax)
	b = appendI16(b, 0, 0, 0, 1, 0, 0) // min lsb, min rsb, xMaxExtent, caret rise/run/offset
	b = append(b, make([]byte, 8)...)  // reserved
	b = appendI16(b, 0)                // metric data format
	b = binary.BigEndian.AppendUint16(b, uint16(f.numberOfHMetrics()))
	return b
}

func (f *Font) numberOfHMetrics() int {
	if f.NumberOfHMetrics > 0 {
		return f.NumberOfHMetrics
	}
	return len(f.Glyphs)
}

func (f *Font) maxp() []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, 0x00010000)
	b = binary.BigEndian.AppendUint16(b, uint16(len(f.Glyphs)))
	b = append(b, make([]byte, 24)...)      // maxPoints … maxComponentElements
	b = binary.BigEndian.AppendUint16(b, 1) // maxComponentDepth
	return b
}

func (f *Font) hmtx() []byte {
	var b []byte
	n := f.numberOfHMetrics()
	for i, g := range f.Glyphs {
		if i < n {
			b = binary.BigEndian.AppendUint16(b, g.Advance)
		}
		b = appendI16(b, g.LSB)
	}
	return b
}

func (f *Font) glyfLoca() (glyf, loca []byte) {
	offsets := make([]int, 0, len(f.Glyphs)+1)
	for _, g := range f.Glyphs {
		offsets = append(offsets, len(glyf))
		var rec []byte
		switch {
		case g.Raw != nil:
			rec = g.Raw
		case len(g.Components) > 0:
			rec = compositeGlyph(g.Components)
		case len(g.Contours) > 0:
			rec = SimpleGlyph(g.Contours)
		}
		glyf = append(glyf, rec...)
		glyf = append(glyf, make([]byte, pad4(len(rec))-len(rec))...)
	}
	offsets = append(offsets, len(glyf))
	for _, off := range offsets {
		if f.LongLoca {
			loca = binary.BigEndian.AppendUint32(loca, uint32(off))
		} else {
			loca = binary.BigEndian.AppendUint16(loca, uint16(off/2))
		}
	}
	return glyf, loca
}

// SimpleGlyph encodes a simple glyph record, using short vectors, "same"
// flags and flag repetition wherever possible.
func SimpleGlyph(contours [][]Point) []byte {
	var b []byte
	var xmin, ymin, xmax, ymax int16
	first := true
	var endPts []uint16
	var points []Point
	for _, c := range contours {
		points = append(points, c...)
		endPts = append(endPts, uint16(len(points)-1))
		for _, p := range c {
			if first {
				xmin, ymin, xmax, ymax = p.X, p.Y, p.X, p.Y
				first = false
			}
			xmin, ymin = min(xmin, p.X), min(ymin, p.Y)
			xmax, ymax = max(xmax, p.X), max(ymax, p.Y)
		}
	}
	b = appendI16(b, int16(len(contours)), xmin, ymin, xmax, ymax)
	for _, e := range endPts {
		b = binary.BigEndian.AppendUint16(b, e)
	}
	b = binary.BigEndian.AppendUint16(b, 0) // instruction length
	flags := make([]byte, len(points))
	var xs, ys []byte
	var px, py int16
	for i, p := range points {
		if p.On {
			flags[i] |= 0x01
		}
		var fx, fy byte
		fx, xs = encodeDelta(xs, int(p.X)-int(px), 0x02, 0x10)
		fy, ys = encodeDelta(ys, int(p.Y)-int(py), 0x04, 0x20)
		flags[i] |= fx | fy
		px, py = p.X, p.Y
	}
	for i := 0; i < len(flags); {
		run := 1
		for i+run < len(flags) && flags[i+run] == flags[i] && run < 256 {
			run++
		}
		if run > 1 {
			b = append(b, flags[i]|0x08, byte(run-1))
		} else {
			b = append(b, flags[i])
		}
		i += run
	}
	b = append(b, xs...)
	b = append(b, ys...)
	return b
}

func encodeDelta(buf []byte, d int, short, same byte) (byte, []byte) {
	switch {
	case d == 0:
		return same, buf
	case d > 0 && d < 256:
		return short | same, append(buf, byte(d))
	case d < 0 && d > -256:
		return short, append(buf, byte(-d))
	}
	return 0, binary.BigEndian.AppendUint16(buf, uint16(int16(d)))
}

func compositeGlyph(components []Component) []byte {
	b := appendI16(nil, -1, 0, 0, 0, 0)
	for i, c := range components {
		flags := c.Flags
		if i < len(components)-1 {
			flags |= 0x0020
		}
		var args []byte
		if c.MatchPoints {
			if c.DX > 255 || c.DY > 255 {
				flags |= 0x0001
				args = appendI16(args, c.DX, c.DY)
			} else {
				args = []byte{byte(c.DX), byte(c.DY)}
			}
		} else {
			flags |= 0x0002
			if c.DX < -128 || c.DX > 127 || c.DY < -128 || c.DY > 127 {
				flags |= 0x0001
				args = appendI16(args, c.DX, c.DY)
			} else {
				args = []byte{byte(int8(c.DX)), byte(int8(c.DY))}
			}
		}
		switch len(c.Scale) {
		case 1:
			flags |= 0x0008
		case 2:
			flags |= 0x0040
		case 4:
			flags |= 0x0080
		}
		b = binary.BigEndian.AppendUint16(b, flags)
		b = binary.BigEndian.AppendUint16(b, c.Glyph)
		b = append(b, args...)
		for _, s := range c.Scale {
			b = appendI16(b, F2Dot14(s))
		}
	}
	return b
}

// F2Dot14 converts a float to 2.14 fixed point format.
func F2Dot14(f float32) int16 {
	return int16(math.Round(float64(f) * (1 << 14)))
}

func appendI16(b []byte, values ...int16) []byte {
	for _, v := range values {
		b = binary.BigEndian.AppendUint16(b, uint16(v))
	}
	return b
}

// --- cmap ------------------------------------------------------------------

// Subtable is an encoding record of table cmap, together with the sub-table data.
type Subtable struct {
	PlatformID, EncodingID uint16
	Data                   []byte
}

// CMap assembles a cmap table from sub-tables.
func CMap(subtables ...Subtable) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, uint16(len(subtables)))
	offset := 4 + 8*len(subtables)
	for _, s := range subtables {
		b = binary.BigEndian.AppendUint16(b, s.PlatformID)
		b = binary.BigEndian.AppendUint16(b, s.EncodingID)
		b = binary.BigEndian.AppendUint32(b, uint32(offset))
		offset += len(s.Data)
	}
	for _, s := range subtables {
		b = append(b, s.Data...)
	}
	return b
}

// Segment is a segment of a format 4 sub-table.
type Segment struct {
	Start, End  uint16
	Delta       int16
	RangeOffset uint16
}

// Format4 encodes a mapping as a format 4 sub-table, one segment per
// code-point (using id deltas), plus the 0xFFFF sentinel segment.
func Format4(m map[rune]uint16) []byte {
	codes := make([]rune, 0, len(m))
	for r := range m {
		if r >= 0 && r < 0xFFFF {
			codes = append(codes, r)
		}
	}
	slices.Sort(codes)
	segments := make([]Segment, 0, len(codes)+1)
	for _, r := range codes {
		segments = append(segments, Segment{
			Start: uint16(r),
			End:   uint16(r),
			Delta: int16(m[r] - uint16(r)),
		})
	}
	segments = append(segments, Segment{Start: 0xFFFF, End: 0xFFFF, Delta: 1})
	return Format4Segments(segments, nil)
}

// Format4Segments encodes explicit segments and a glyph ID array as a
// format 4 sub-table. No sentinel segment is added.
func Format4Segments(segments []Segment, glyphIDs []uint16) []byte {
	n := len(segments)
	length := 16 + 8*n + 2*len(glyphIDs)
	entrySelector := 0
	for 1<<(entrySelector+1) <= n {
		entrySelector++
	}
	searchRange := 2 * (1 << entrySelector)
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 4)
	b = binary.BigEndian.AppendUint16(b, uint16(length))
	b = binary.BigEndian.AppendUint16(b, 0) // language
	b = binary.BigEndian.AppendUint16(b, uint16(2*n))
	b = binary.BigEndian.AppendUint16(b, uint16(searchRange))
	b = binary.BigEndian.AppendUint16(b, uint16(entrySelector))
	b = binary.BigEndian.AppendUint16(b, uint16(2*n-searchRange))
	for _, s := range segments {
		b = binary.BigEndian.AppendUint16(b, s.End)
	}
	b = binary.BigEndian.AppendUint16(b, 0) // reserved pad
	for _, s := range segments {
		b = binary.BigEndian.AppendUint16(b, s.Start)
	}
	for _, s := range segments {
		b = appendI16(b, s.Delta)
	}
	for _, s := range segments {
		b = binary.BigEndian.AppendUint16(b, s.RangeOffset)
	}
	for _, g := range glyphIDs {
		b = binary.BigEndian.AppendUint16(b, g)
	}
	return b
}

// Format6 encodes a trimmed table mapping (a format not supported by the
// parser under test).
func Format6(first uint16, glyphIDs []uint16) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 6)
	b = binary.BigEndian.AppendUint16(b, uint16(10+2*len(glyphIDs)))
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, first)
	b = binary.BigEndian.AppendUint16(b, uint16(len(glyphIDs)))
	for _, g := range glyphIDs {
		b = binary.BigEndian.AppendUint16(b, g)
	}
	return b
}

// --- name ------------------------------------------------------------------

func nameTable(names map[uint16]string) []byte {
	ids := make([]uint16, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var strs []byte
	var recs []byte
	for _, id := range ids {
		var s []byte
		for _, r := range names[id] {
			s = binary.BigEndian.AppendUint16(s, uint16(r)) // BMP only
		}
		recs = binary.BigEndian.AppendUint16(recs, 3)      // platform
		recs = binary.BigEndian.AppendUint16(recs, 1)      // encoding
		recs = binary.BigEndian.AppendUint16(recs, 0x0409) // language
		recs = binary.BigEndian.AppendUint16(recs, id)
		recs = binary.BigEndian.AppendUint16(recs, uint16(len(s)))
		recs = binary.BigEndian.AppendUint16(recs, uint16(len(strs)))
		strs = append(strs, s...)
	}
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, uint16(len(ids)))
	b = binary.BigEndian.AppendUint16(b, uint16(6+len(recs)))
	b = append(b, recs...)
	return append(b, strs...)
}
