package otquery

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/npillmayer/truetype/ot"
)

// Coverage returns the set of code-points the font maps to a glyph other
// than '.notdef'. Only the Basic Multilingual Plane can be covered.
func Coverage(otf *ot.Font) *bitset.BitSet {
	set := bitset.New(0x10000)
	if otf == nil || otf.CMap == nil {
		return set
	}
	for r := range otf.CMap.GlyphIndexMap.Ranges() {
		set.Set(uint(r))
	}
	tracer().Debugf("font covers %d code-points", set.Count())
	return set
}

// MissingCodePoints returns the code-points of text, in order of first
// occurrence, which the font does not map to a glyph. Text rendered with
// such a font will show the missing glyph for them.
func MissingCodePoints(otf *ot.Font, text string) []rune {
	covered := Coverage(otf)
	seen := bitset.New(0)
	var missing []rune
	for _, r := range text {
		if r >= 0 && r < 0x10000 && covered.Test(uint(r)) {
			continue
		}
		if seen.Test(uint(r)) {
			continue
		}
		seen.Set(uint(r))
		missing = append(missing, r)
	}
	return missing
}
