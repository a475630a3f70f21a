package otquery

import (
	"fmt"

	"github.com/npillmayer/truetype/ot"
	"golang.org/x/image/font/sfnt"
)

// FontType returns a readable name for the outline flavour of a font, as
// stated by the font file header.
func FontType(otf *ot.Font) string {
	if otf == nil || otf.Header == nil {
		return "unknown"
	}
	switch otf.Header.FontType {
	case 0x00010000:
		return "TrueType"
	case 0x74727565: // 'true'
		return "TrueType (Apple)"
	case 0x4f54544f: // 'OTTO'
		return "OpenType/CFF"
	}
	return fmt.Sprintf("unknown (0x%08x)", otf.Header.FontType)
}

// Offsets of the typographic metrics in table OS/2.
const (
	os2TypoAscender  = 68
	os2TypoDescender = 70
	os2TypoLineGap   = 72
)

// FontMetrics retrieves selected metrics of a font.
//
// Vertical metrics are taken from table hhea. If hhea states neither an
// ascender nor a descender, the typographic values of table OS/2 are used.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if hhea := otf.HHea; hhea != nil {
		metrics.Ascent = sfnt.Units(hhea.Ascender)
		metrics.Descent = sfnt.Units(hhea.Descender)
		metrics.LineGap = sfnt.Units(hhea.LineGap)
		metrics.MaxAdvance = sfnt.Units(hhea.AdvanceWidthMax)
	}
	if metrics.Ascent == 0 && metrics.Descent == 0 {
		if c := tableCursor(otf, "OS/2", os2TypoLineGap+2); c != nil {
			c.Seek(os2TypoAscender)
			a, d, gap := sfnt.Units(c.I16()), sfnt.Units(c.I16()), sfnt.Units(c.I16())
			if a > metrics.Ascent {
				tracer().Debugf("override of ascent: %d -> %d", metrics.Ascent, a)
				metrics.Ascent = a
			}
			if d < metrics.Descent {
				tracer().Debugf("override of descent: %d -> %d", metrics.Descent, d)
				metrics.Descent = d
			}
			if metrics.LineGap == 0 {
				metrics.LineGap = gap
			}
		}
	}
	metrics.UnitsPerEm = sfnt.Units(otf.UnitsPerEm())
	return metrics
}

// GlyphIndex returns the glyph index for a code-point, or 0 (the missing
// glyph) if the font does not map it.
func GlyphIndex(otf *ot.Font, codepoint rune) ot.GlyphIndex {
	if otf == nil || otf.CMap == nil {
		return 0
	}
	return otf.CMap.Lookup(codepoint)
}

// CodePointForGlyph returns the lowest code-point mapped to glyph gid, or 0.
// It scans the segments of the character map.
func CodePointForGlyph(otf *ot.Font, gid ot.GlyphIndex) rune {
	if gid == 0 || otf == nil || otf.CMap == nil || otf.CMap.GlyphIndexMap == nil {
		return 0
	}
	return otf.CMap.GlyphIndexMap.ReverseLookup(gid)
}

// GlyphMetrics returns the metrics of glyph gid. Values which cannot be
// decoded are left zero.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if aw, lsb, ok := otf.HMtx.HMetrics(gid); ok {
		metrics.Advance = sfnt.Units(aw)
		metrics.LSB = sfnt.Units(lsb)
	}
	if g, err := otf.Glyf.Glyph(gid); err == nil && !g.IsEmpty() {
		metrics.BBox = BoundingBox{
			MinX: sfnt.Units(g.XMin),
			MinY: sfnt.Units(g.YMin),
			MaxX: sfnt.Units(g.XMax),
			MaxY: sfnt.Units(g.YMax),
		}
	} else if err != nil {
		tracer().Infof("glyph %d: %v", gid, err)
	}
	// xMin and xMax are undefined for glyphs without contours
	if !metrics.BBox.Empty() {
		metrics.RSB = metrics.Advance - metrics.LSB - metrics.BBox.Width()
	}
	return metrics
}
