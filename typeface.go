package truetype

import (
	"fmt"
	"os"

	"github.com/npillmayer/truetype/ot"
	"github.com/npillmayer/truetype/otquery"
	"golang.org/x/image/font/sfnt"
)

// Typeface is a parsed TrueType font, ready to map text to outlines.
// All values are in font design units.
//
// A Typeface is immutable and safe for concurrent use.
type Typeface struct {
	otf  *ot.Font
	Path string // file path, if loaded from a file
}

// ParseFont parses a TrueType font from its binary representation.
//
// The input is expected to contain a complete single-font SFNT stream.
// It must not change after parsing for the typeface to be usable.
// Errors wrap ot.ErrMalformedFont or ot.ErrNoUsableCharacterMap, or are of
// type ot.UnsupportedCmapFormatError.
func ParseFont(data []byte) (*Typeface, error) {
	otf, err := ot.Parse(data)
	if err != nil {
		return nil, err
	}
	tf := &Typeface{otf: otf}
	if w := otf.Warnings(); len(w) > 0 {
		tracer().Infof("font parsed with %d warnings", len(w))
	}
	return tf, nil
}

// LoadTypeface reads and parses a font file.
func LoadTypeface(path string) (*Typeface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tf, err := ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	tf.Path = path
	tracer().Debugf("loaded typeface %q from %s", tf.FamilyName(), path)
	return tf, nil
}

// Font returns the underlying table structure, for inspection.
func (tf *Typeface) Font() *ot.Font {
	return tf.otf
}

// GlyphIndexFor returns the glyph for code-point r, or 0 (the missing glyph)
// if the font does not map r.
func (tf *Typeface) GlyphIndexFor(r rune) ot.GlyphIndex {
	return tf.otf.CMap.Lookup(r)
}

// AdvanceWidth returns the advance width of glyph g.
// It fails with ot.ErrIndexOutOfRange for glyphs beyond NumGlyphs.
func (tf *Typeface) AdvanceWidth(g ot.GlyphIndex) (uint16, error) {
	return tf.otf.HMtx.GetAdvanceWidth(g)
}

// OutlineFor returns the outline of glyph g with all components resolved.
// Glyphs without contours, e.g. the space, have an empty outline.
func (tf *Typeface) OutlineFor(g ot.GlyphIndex) (ot.Outline, error) {
	return tf.otf.Glyf.Outline(g)
}

// UnitsPerEm returns the resolution of the font's design grid.
func (tf *Typeface) UnitsPerEm() uint16 {
	return tf.otf.UnitsPerEm()
}

// NumGlyphs returns the number of glyphs of the font.
func (tf *Typeface) NumGlyphs() int {
	return tf.otf.NumGlyphs()
}

// Ascender returns the typographic ascender, as stated by table hhea.
func (tf *Typeface) Ascender() int16 {
	return tf.otf.HHea.Ascender
}

// Descender returns the typographic descender, usually negative.
func (tf *Typeface) Descender() int16 {
	return tf.otf.HHea.Descender
}

// LineGap returns the typographic line gap.
func (tf *Typeface) LineGap() int16 {
	return tf.otf.HHea.LineGap
}

// FamilyName returns the family name from the font's name table,
// or an empty string.
func (tf *Typeface) FamilyName() string {
	family, _ := tf.Names()
	return family
}

// Names extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded by the name-table reader.
func (tf *Typeface) Names() (family, subfamily string) {
	for nameID, value := range otquery.NamesRange(tf.otf) {
		switch nameID {
		case sfnt.NameIDFamily:
			if family == "" {
				family = value
			}
		case sfnt.NameIDSubfamily:
			if subfamily == "" {
				subfamily = value
			}
		}
	}
	return
}

func (tf *Typeface) String() string {
	family, sub := tf.Names()
	if family == "" {
		family = "unnamed"
	}
	return fmt.Sprintf("typeface %s %s (%d glyphs, %d upem)", family, sub, tf.NumGlyphs(), tf.UnitsPerEm())
}
