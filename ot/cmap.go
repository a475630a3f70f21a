package ot

import (
	"errors"
	"fmt"
	"iter"
	"sort"
)

// --- CMap table ------------------------------------------------------------

// CMapTable represents an OpenType cmap table, i.e. the table to receive glyphs
// from code-points.
//
// Tables cmap may contain more than one mapping from code-points to glyph IDs.
// Parse selects the most suitable one for Unicode text and makes it available
// as GlyphIndexMap. All sub-table records are retained in Records, together
// with the result of decoding them.
type CMapTable struct {
	span
	Records       []SubtableRecord
	GlyphIndexMap *CharacterMap
}

// Lookup returns the glyph index for a code-point, or 0 if the code-point
// is not mapped.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil {
		return 0
	}
	return t.GlyphIndexMap.Lookup(r)
}

// SubtableRecord is an encoding record of table cmap, together with the
// outcome of decoding the sub-table it points to. Exactly one of Map and Err
// is non-nil.
type SubtableRecord struct {
	PlatformID uint16
	EncodingID uint16
	Offset     uint32 // relative to the start of table cmap
	Format     uint16
	Map        *CharacterMap
	Err        error
}

// rank orders sub-tables by suitability for mapping Unicode code-points.
// Higher is better, 0 does not qualify at all.
func (rec SubtableRecord) rank() int {
	switch rec.PlatformID {
	case 0: // Unicode
		if rec.EncodingID <= 4 {
			return 3
		}
	case 3: // Windows
		switch rec.EncodingID {
		case 10: // Unicode full repertoire
			return 2
		case 1: // Unicode BMP
			return 1
		}
	}
	// Symbol (3,0), Macintosh (1,*) and everything else do not qualify.
	return 0
}

// ParseCharacterMaps decodes every sub-table of a cmap table. b holds the bytes
// of table cmap, base is the table's offset within the font file.
//
// A failure of a single sub-table (e.g., an unsupported format) is recorded
// in its SubtableRecord and does not fail the call; only a corrupt cmap header
// or corrupt encoding records will return an error.
func ParseCharacterMaps(b []byte, base uint32) ([]SubtableRecord, error) {
	ec := &errorCollector{}
	return parseCharacterMaps(T("cmap"), binarySegm(b), base, ec)
}

func parseCharacterMaps(tag Tag, b binarySegm, base uint32, ec *errorCollector) ([]SubtableRecord, error) {
	const headerSize, entrySize = 4, 8
	c := NewCursor(b, base)
	_ = c.U16() // version
	n := int(c.U16())
	if c.Err() != nil {
		return nil, ec.addError(tag, "Header", "table too small for header", SeverityCritical, base)
	}
	tracer().Debugf("font cmap has %d sub-tables in %d bytes", n, len(b))
	entriesSize, err := checkedMulInt(entrySize, n)
	if err != nil {
		return nil, ec.addError(tag, "Header", fmt.Sprintf("entries size overflow: %v", err), SeverityCritical, base)
	}
	if headerSize+entriesSize > len(b) {
		return nil, ec.addError(tag, "Header", fmt.Sprintf("table size %d < required %d",
			len(b), headerSize+entriesSize), SeverityCritical, base)
	}
	records := make([]SubtableRecord, n)
	for i := range records {
		records[i].PlatformID = c.U16()
		records[i].EncodingID = c.U16()
		records[i].Offset = c.U32()
	}
	for i := range records {
		rec := &records[i]
		rec.Map, rec.Format, rec.Err = parseCMapSubtable(tag, b, base, rec.Offset, ec)
		if rec.Err != nil {
			tracer().Debugf("cmap sub-table %d (platform=%d, encoding=%d): %v",
				i, rec.PlatformID, rec.EncodingID, rec.Err)
			var unsupported UnsupportedCmapFormatError
			if errors.As(rec.Err, &unsupported) {
				unsupported.PlatformID, unsupported.EncodingID = rec.PlatformID, rec.EncodingID
				rec.Err = unsupported
			}
		}
	}
	return records, nil
}

// parseCMapSubtable dispatches on the sub-table format.
func parseCMapSubtable(tag Tag, b binarySegm, base, offset uint32, ec *errorCollector) (*CharacterMap, uint16, error) {
	if offset > uint32(len(b)) {
		return nil, 0, errMalformed(tag, "Subtable", "sub-table offset %d exceeds table size %d", offset, len(b))
	}
	sub := b[offset:]
	format, err := sub.u16(0)
	if err != nil {
		return nil, 0, errMalformed(tag, "Subtable", "sub-table at offset %d truncated", offset)
	}
	switch format {
	case 4:
		cmap, err := parseCMapFormat4(tag, sub, base+offset, ec)
		return cmap, format, err
	}
	return nil, format, UnsupportedCmapFormatError{Format: format}
}

// SelectCharacterMap chooses the best Unicode character map from a list of
// decoded sub-table records. Records of the Unicode platform are preferred
// over Windows Unicode (full repertoire before BMP). Symbol and Macintosh
// encodings never qualify.
//
// If no qualifying record could be decoded, the error of a qualifying record
// is returned (preferring UnsupportedCmapFormatError), or
// ErrNoUsableCharacterMap if no record qualifies at all.
func SelectCharacterMap(records []SubtableRecord) (*CharacterMap, int, error) {
	best, bestRank := -1, 0
	var unsupported, malformed error
	for i, rec := range records {
		rank := rec.rank()
		if rank == 0 {
			continue
		}
		if rec.Err != nil {
			var e UnsupportedCmapFormatError
			if errors.As(rec.Err, &e) {
				if unsupported == nil {
					unsupported = rec.Err
				}
			} else if malformed == nil {
				malformed = rec.Err
			}
			continue
		}
		if rank > bestRank {
			best, bestRank = i, rank
		}
	}
	switch {
	case best >= 0:
		return records[best].Map, best, nil
	case unsupported != nil:
		return nil, -1, unsupported
	case malformed != nil:
		return nil, -1, malformed
	}
	return nil, -1, FontError{
		Table:    T("cmap"),
		Section:  "Encoding",
		Issue:    "no Unicode sub-table found",
		Severity: SeverityCritical,
		Err:      ErrNoUsableCharacterMap,
	}
}

// --- Format 4 --------------------------------------------------------------

// CharacterMap is a decoded cmap sub-table of format 4: segment mapping to
// delta values. It maps Unicode code-points of the Basic Multilingual Plane
// to glyph indices.
//
// A CharacterMap is immutable and safe for concurrent use.
type CharacterMap struct {
	segCount      int
	endCode       []uint16
	startCode     []uint16
	idDelta       []uint16
	idRangeOffset []uint16
	glyphIDArray  []uint16
	numGlyphs     int // 0 if unknown
}

// SegmentCount returns the number of segments of the mapping.
func (cm *CharacterMap) SegmentCount() int {
	if cm == nil {
		return 0
	}
	return cm.segCount
}

// Segment returns start code, end code, id delta and id range offset of
// segment i.
func (cm *CharacterMap) Segment(i int) (start, end uint16, delta int16, rangeOffset uint16) {
	return cm.startCode[i], cm.endCode[i], int16(cm.idDelta[i]), cm.idRangeOffset[i]
}

// GlyphIDArrayLen returns the number of entries of the trailing glyph ID array.
func (cm *CharacterMap) GlyphIDArrayLen() int {
	return len(cm.glyphIDArray)
}

// restrict makes cm return 0 for glyph indices >= numGlyphs.
func (cm *CharacterMap) restrict(numGlyphs int) {
	cm.numGlyphs = numGlyphs
}

// parseCMapFormat4 decodes a segment mapping sub-table. Failures are recorded
// as major issues; they become critical only if no other sub-table can be
// selected.
func parseCMapFormat4(tag Tag, b binarySegm, base uint32, ec *errorCollector) (*CharacterMap, error) {
	c := NewCursor(b, base)
	_ = c.U16() // format
	length := int(c.U16())
	_ = c.U16() // language
	segCountX2 := int(c.U16())
	if err := c.Err(); err != nil {
		return nil, err
	}
	if length > len(b) {
		return nil, ec.addError(tag, "Format4", fmt.Sprintf("sub-table length %d exceeds cmap table (%d bytes left)",
			length, len(b)), SeverityMajor, base)
	}
	if segCountX2 == 0 || segCountX2%2 != 0 {
		return nil, ec.addError(tag, "Format4", fmt.Sprintf("invalid segCountX2 %d", segCountX2),
			SeverityMajor, base+6)
	}
	c = NewCursor(b[:length], base)
	c.Seek(8)
	c.Skip(6) // searchRange, entrySelector, rangeShift
	cm := &CharacterMap{segCount: segCountX2 / 2}
	cm.endCode = c.U16Array(cm.segCount)
	if pad := c.U16(); pad != 0 {
		ec.addWarning(tag, fmt.Sprintf("format 4 reserved pad is %d", pad), c.Offset()-2)
	}
	cm.startCode = c.U16Array(cm.segCount)
	cm.idDelta = c.U16Array(cm.segCount)
	cm.idRangeOffset = c.U16Array(cm.segCount)
	if err := c.Err(); err != nil {
		return nil, err
	}
	// The length of glyphIdArray is not stored anywhere. It is whatever is
	// left of the sub-table after the segment arrays.
	remaining := length - c.Pos()
	if remaining < 0 || remaining%2 != 0 {
		return nil, ec.addError(tag, "Format4", fmt.Sprintf("glyph ID array has invalid byte size %d",
			remaining), SeverityMajor, c.Offset())
	}
	cm.glyphIDArray = c.U16Array(remaining / 2)
	if err := c.Err(); err != nil {
		return nil, err
	}
	for i := 0; i < cm.segCount; i++ {
		if cm.startCode[i] > cm.endCode[i] {
			return nil, ec.addError(tag, "Format4", fmt.Sprintf("segment %d: start code %d > end code %d",
				i, cm.startCode[i], cm.endCode[i]), SeverityMajor, base)
		}
		if i > 0 && cm.endCode[i] < cm.endCode[i-1] {
			return nil, ec.addError(tag, "Format4", fmt.Sprintf("segment %d: end codes not sorted", i),
				SeverityMajor, base)
		}
	}
	if cm.endCode[cm.segCount-1] != 0xFFFF {
		ec.addWarning(tag, "format 4 sub-table lacks the 0xFFFF sentinel segment", base)
	}
	return cm, nil
}

// Lookup returns the glyph index for code-point r, or 0 if r is not mapped.
// Code-points outside the Basic Multilingual Plane are never mapped.
func (cm *CharacterMap) Lookup(r rune) GlyphIndex {
	if cm == nil || r < 0 || r > 0xFFFF {
		return 0
	}
	c := uint16(r)
	i := sort.Search(cm.segCount, func(i int) bool {
		return cm.endCode[i] >= c
	})
	if i == cm.segCount || cm.startCode[i] > c {
		return 0
	}
	return cm.lookupInSegment(i, c)
}

func (cm *CharacterMap) lookupInSegment(i int, c uint16) GlyphIndex {
	var g uint16
	if cm.idRangeOffset[i] == 0 {
		g = c + cm.idDelta[i] // modulo 65536
	} else {
		// idRangeOffset is a byte offset from &idRangeOffset[i]; glyphIdArray
		// directly follows idRangeOffset[segCount-1].
		inx := int(cm.idRangeOffset[i])/2 + int(c-cm.startCode[i]) + i - cm.segCount
		if inx < 0 || inx >= len(cm.glyphIDArray) {
			return 0
		}
		if g = cm.glyphIDArray[inx]; g == 0 {
			return 0
		}
		g += cm.idDelta[i]
	}
	if cm.numGlyphs > 0 && int(g) >= cm.numGlyphs {
		return 0
	}
	return GlyphIndex(g)
}

// Ranges iterates over all mapped code-points in ascending order, together
// with their glyph indices. Code-points mapping to glyph 0 are skipped.
func (cm *CharacterMap) Ranges() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		if cm == nil {
			return
		}
		for i := 0; i < cm.segCount; i++ {
			start, end := int(cm.startCode[i]), int(cm.endCode[i])
			if start == 0xFFFF { // sentinel
				continue
			}
			if i > 0 && start <= int(cm.endCode[i-1]) {
				start = int(cm.endCode[i-1]) + 1 // overlapping segments: first one wins
			}
			for c := start; c <= end; c++ {
				if g := cm.lookupInSegment(i, uint16(c)); g != 0 {
					if !yield(rune(c), g) {
						return
					}
				}
			}
		}
	}
}

// ReverseLookup returns the smallest code-point mapping to glyph g, or 0.
// This is a linear scan and intended for diagnostics only.
func (cm *CharacterMap) ReverseLookup(g GlyphIndex) rune {
	for r, gid := range cm.Ranges() {
		if gid == g {
			return r
		}
	}
	return 0
}
