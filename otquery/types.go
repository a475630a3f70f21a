package otquery

import "golang.org/x/image/font/sfnt"

// FontMetricsInfo holds the font-wide metrics, in design units.
type FontMetricsInfo struct {
	UnitsPerEm sfnt.Units
	Ascent     sfnt.Units
	Descent    sfnt.Units // negative for descenders below the baseline
	LineGap    sfnt.Units
	MaxAdvance sfnt.Units // advanceWidthMax of table hhea
}

// LineHeight is the distance between two baselines, i.e. ascent plus the
// depth of the descent plus the line gap.
func (m FontMetricsInfo) LineHeight() sfnt.Units {
	return m.Ascent - m.Descent + m.LineGap
}

// GlyphMetricsInfo holds the horizontal metrics and the bounding box of a glyph.
type GlyphMetricsInfo struct {
	Advance sfnt.Units
	LSB     sfnt.Units
	RSB     sfnt.Units // 0 for glyphs without outline
	BBox    BoundingBox
}

// BoundingBox is the extent of a glyph's outline, y pointing up.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// Empty is true if the box has no area.
func (b BoundingBox) Empty() bool {
	return b.MaxX <= b.MinX || b.MaxY <= b.MinY
}

func (b BoundingBox) Width() sfnt.Units {
	return b.MaxX - b.MinX
}

func (b BoundingBox) Height() sfnt.Units {
	return b.MaxY - b.MinY
}
