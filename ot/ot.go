package ot

import (
	"fmt"
	"slices"
)

// Font is a parsed TrueType font. It holds typed access to the tables
// needed to turn text into outlines, and byte ranges for all others.
//
// A Font is immutable after Parse returns and may be shared between
// goroutines.
type Font struct {
	Header    *FontHeader
	Directory map[Tag]TableEntry // byte ranges of all tables of the font
	Head      *HeadTable
	HHea      *HHeaTable
	MaxP      *MaxPTable
	CMap      *CMapTable
	HMtx      *HMtxTable
	Loca      *LocaTable
	Glyf      *GlyfTable
	tables    map[Tag]Table
	issues    errorCollector // errors and warnings found while parsing
}

// FontHeader is the offset table at the start of a font file. The search
// fields are informational only.
//
// TrueType fonts use 0x00010000 as FontType, Apple fonts may use 'true'.
type FontHeader struct {
	FontType      uint32
	TableCount    uint16
	SearchRange   uint16
	EntrySelector uint16
	RangeShift    uint16
}

// TableEntry locates a table within the font's binary data.
type TableEntry struct {
	Tag    Tag
	Offset uint32 // absolute offset from the start of the font file
	Length uint32
}

func (e TableEntry) String() string {
	return fmt.Sprintf("%s[%d:%d]", e.Tag, e.Offset, e.Offset+e.Length)
}

// Table returns the table for a tag, or nil if the font does not contain it.
// Tags are case-sensitive.
//
// Tables which are not interpreted by this package are returned as *RawTable:
//
//	os2 := otf.Table(ot.T("OS/2")).Binary()
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// TableTags returns the tags of all tables of the font in ascending order.
func (otf *Font) TableTags() []Tag {
	tags := make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// NumGlyphs returns the number of glyphs as stated by table maxp.
func (otf *Font) NumGlyphs() int {
	if otf == nil || otf.MaxP == nil {
		return 0
	}
	return otf.MaxP.NumGlyphs
}

// UnitsPerEm returns the design grid resolution of the font.
func (otf *Font) UnitsPerEm() uint16 {
	if otf == nil || otf.Head == nil {
		return 0
	}
	return otf.Head.UnitsPerEm
}

// Errors returns the errors recorded while parsing. As Parse fails on
// critical errors, these are the minor and major ones.
func (otf *Font) Errors() []FontError {
	return nonNil(otf.issues.errors)
}

// Warnings returns the inconsistencies tolerated while parsing.
func (otf *Font) Warnings() []FontWarning {
	return nonNil(otf.issues.warnings)
}

// CriticalErrors returns the recorded errors of critical severity.
func (otf *Font) CriticalErrors() []FontError {
	critical := []FontError{}
	for _, err := range otf.issues.errors {
		if err.Severity == SeverityCritical {
			critical = append(critical, err)
		}
	}
	return critical
}

// HasCriticalErrors is a shortcut for len(otf.CriticalErrors()) > 0.
func (otf *Font) HasCriticalErrors() bool {
	return slices.ContainsFunc(otf.issues.errors, func(e FontError) bool {
		return e.Severity == SeverityCritical
	})
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is the 4-byte identifier of a table, packed big-endian.
type Tag uint32

// MakeTag creates a Tag from up to 4 bytes. Shorter input is padded with
// leading zeros, longer input is cut.
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	var tag Tag
	if len(b) > 4 {
		b = b[:4]
	}
	for _, c := range b {
		tag = tag<<8 | Tag(c)
	}
	return tag
}

// T returns the Tag for a table name. Names shorter than 4 letters are
// padded with spaces, as in 'cvt '.
func T(name string) Tag {
	return MakeTag([]byte((name + "    ")[:4]))
}

func (t Tag) String() string {
	return string([]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)})
}

// --- Table -----------------------------------------------------------------

// Table is one of the tables of a font.
//
// The tables 'cmap', 'head', 'hhea', 'hmtx', 'maxp', 'loca' and 'glyf' are
// interpreted and have concrete types (*CMapTable, *HeadTable, …). Every
// other table ('name', 'OS/2', 'post', 'cvt ', …) is a *RawTable.
type Table interface {
	Tag() Tag
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // read-only view into the font data
}

// span is the byte range of a table.
type span struct {
	data   binarySegm
	tag    Tag
	offset uint32
	length uint32
}

func makeSpan(tag Tag, b binarySegm, offset, size uint32) span {
	return span{data: b, tag: tag, offset: offset, length: size}
}

// Tag returns the name of the table.
func (s span) Tag() Tag { return s.tag }

// Extent returns offset and byte size of the table within the font.
func (s span) Extent() (uint32, uint32) { return s.offset, s.length }

// Binary returns the bytes of the table. It is a view into the font data and
// must not be modified.
func (s span) Binary() []byte { return s.data }

// RawTable is a table without interpretation.
type RawTable struct {
	span
}

// tableOf returns the table for tag if it has type X, or the zero value.
func tableOf[X Table](otf *Font, tag Tag) X {
	x, _ := otf.tables[tag].(X)
	return x
}

// --- Concrete table implementations ----------------------------------------

// HeadTable holds the global values of table head needed for scaling and
// consistency checks.
type HeadTable struct {
	span
	Flags            uint16
	UnitsPerEm       uint16 // 16 … 16384
	XMin, YMin       int16  // bounding box of all glyphs
	XMax, YMax       int16
	IndexToLocFormat uint16 // 0 for short loca offsets, 1 for long ones
}

// LocaTable maps glyph indices to the byte ranges of their outlines within
// table glyf. Glyph 0 is the missing glyph.
type LocaTable struct {
	span
	long  bool // 32-bit offsets
	count int  // number of offsets, i.e. numGlyphs+1
}

// IndexToLocation returns the offset of glyph gid within table glyf. An
// index without an entry yields 0, the location of the missing glyph.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) uint32 {
	if int(gid) >= t.count {
		return 0
	}
	if t.long {
		loc, err := t.data.u32(int(gid) * 4)
		if err != nil {
			return 0
		}
		return loc
	}
	loc, err := t.data.u16(int(gid) * 2)
	if err != nil {
		return 0
	}
	return uint32(loc) * 2
}

// GlyphRange returns the byte range [start, end) of glyph gid within table
// glyf. The range is not checked against the size of glyf.
func (t *LocaTable) GlyphRange(gid GlyphIndex) (uint32, uint32, error) {
	if int(gid)+1 >= t.count {
		return 0, 0, fmt.Errorf("%w: loca has no entry for glyph %d", ErrIndexOutOfRange, gid)
	}
	start, end := t.IndexToLocation(gid), t.IndexToLocation(gid+1)
	if end < start {
		return 0, 0, errMalformed(t.tag, "Offsets",
			"offsets for glyph %d are decreasing (%d > %d)", gid, start, end)
	}
	return start, end, nil
}

// MaxPTable holds the glyph count and, for version 1.0, the maximum nesting
// of composite glyphs.
type MaxPTable struct {
	span
	Version           uint32
	NumGlyphs         int
	MaxComponentDepth int // 0 for version 0.5
}

// HHeaTable holds the values for horizontal layout.
type HHeaTable struct {
	span
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	NumberOfHMetrics    int
}
