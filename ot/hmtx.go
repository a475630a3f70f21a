package ot

import (
	"fmt"
)

// HorizontalMetrics holds the advance width and left side bearing of every
// glyph of a font, indexed by glyph index.
//
// Table hmtx stores `count` long records (advance width plus left side bearing),
// followed by bare left side bearings for the remaining glyphs. Those glyphs
// share the advance width of the last long record (used by monospaced fonts
// to save space). HorizontalMetrics expands this compaction, so lookups are
// constant-time.
type HorizontalMetrics struct {
	advanceWidths    []uint16
	leftSideBearings []int16
}

// ParseHorizontalMetrics decodes the bytes of an hmtx table, given the number
// of long metric records (from table hhea) and the number of glyphs (from
// table maxp).
//
// It fails with ErrMalformedFont if count exceeds numGlyphs, if count is 0
// while there are glyphs (no advance width to repeat), or if the data is
// exhausted before numGlyphs left side bearings have been read.
func ParseHorizontalMetrics(b []byte, base uint32, count, numGlyphs int) (*HorizontalMetrics, error) {
	tag := T("hmtx")
	if numGlyphs < 0 || count < 0 {
		return nil, errMalformed(tag, "Counts", "invalid counts: count=%d, numGlyphs=%d", count, numGlyphs)
	}
	if count > numGlyphs {
		return nil, errMalformed(tag, "NumberOfHMetrics",
			"value %d exceeds number of glyphs %d", count, numGlyphs)
	}
	if count == 0 && numGlyphs > 0 {
		return nil, errMalformed(tag, "NumberOfHMetrics",
			"no long metric record for %d glyphs", numGlyphs)
	}
	longSize, err := checkedMulInt(count, 4)
	if err != nil {
		return nil, errMalformed(tag, "Size", "%v", err)
	}
	lsbSize, err := checkedMulInt(numGlyphs-count, 2)
	if err != nil {
		return nil, errMalformed(tag, "Size", "%v", err)
	}
	required, err := checkedAddInt(longSize, lsbSize)
	if err != nil {
		return nil, errMalformed(tag, "Size", "%v", err)
	}
	if required > len(b) {
		return nil, FontError{
			Table:    tag,
			Section:  "Size",
			Issue:    fmt.Sprintf("table size %d insufficient for %d glyphs (need %d)", len(b), numGlyphs, required),
			Severity: SeverityCritical,
			Offset:   base,
		}
	}
	hm := &HorizontalMetrics{
		advanceWidths:    make([]uint16, numGlyphs),
		leftSideBearings: make([]int16, numGlyphs),
	}
	c := NewCursor(b, base)
	for i := 0; i < count; i++ {
		hm.advanceWidths[i] = c.U16()
		hm.leftSideBearings[i] = c.I16()
	}
	for i := count; i < numGlyphs; i++ {
		hm.advanceWidths[i] = hm.advanceWidths[count-1]
		hm.leftSideBearings[i] = c.I16()
	}
	if c.Err() != nil {
		return nil, c.Err()
	}
	return hm, nil
}

// NumGlyphs returns the number of glyphs covered by hm.
func (hm *HorizontalMetrics) NumGlyphs() int {
	if hm == nil {
		return 0
	}
	return len(hm.advanceWidths)
}

// GetAdvanceWidth returns the advance width of glyph g in font design units.
// It fails with ErrIndexOutOfRange if g is not a glyph of the font.
func (hm *HorizontalMetrics) GetAdvanceWidth(g GlyphIndex) (uint16, error) {
	if hm == nil || int(g) >= len(hm.advanceWidths) {
		return 0, fmt.Errorf("%w: advance width for glyph %d", ErrIndexOutOfRange, g)
	}
	return hm.advanceWidths[g], nil
}

// GetLeftSideBearing returns the left side bearing of glyph g in font design units.
// It fails with ErrIndexOutOfRange if g is not a glyph of the font.
func (hm *HorizontalMetrics) GetLeftSideBearing(g GlyphIndex) (int16, error) {
	if hm == nil || int(g) >= len(hm.leftSideBearings) {
		return 0, fmt.Errorf("%w: left side bearing for glyph %d", ErrIndexOutOfRange, g)
	}
	return hm.leftSideBearings[g], nil
}

// --- HMtx table ------------------------------------------------------------

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. Each element in the contained hMetrics-array has two parts: the advance width
// and left side bearing. The value NumberOfHMetrics is taken from the `hhea` table. In
// a monospaced font, only one entry is required but that entry may not be omitted.
//
// The metrics are decoded as soon as tables hhea and maxp are known, i.e. at
// the end of Parse.
type HMtxTable struct {
	span
	NumberOfHMetrics int
	*HorizontalMetrics
}

func (t *HMtxTable) parseAll(numGlyphs, numberOfHMetrics int) error {
	hm, err := ParseHorizontalMetrics(t.data, t.offset, numberOfHMetrics, numGlyphs)
	if err != nil {
		return err
	}
	t.NumberOfHMetrics = numberOfHMetrics
	t.HorizontalMetrics = hm
	return nil
}

// HMetrics returns the advance width and left side bearing for a glyph.
// It returns false if g is out of range.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16, bool) {
	if t == nil || t.HorizontalMetrics == nil || int(g) >= t.NumGlyphs() {
		return 0, 0, false
	}
	return t.advanceWidths[g], t.leftSideBearings[g], true
}
