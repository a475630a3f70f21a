package truetype

import (
	"math"

	"github.com/npillmayer/truetype/otraster"
)

// Rasterize renders text with typeface tf at pointSize into raster, starting
// at the left border with the baseline at the scaled ascender. Coverage is
// added to the raster's existing content.
//
// Code-points missing from the font render as the missing glyph, and glyphs
// which cannot be decoded are skipped, keeping their advance. The only error
// returned is otraster.ErrInvalidRaster.
//
// Callers needing control over the pen position, baseline or curve flatness
// should use an otraster.Rasterizer directly.
func Rasterize(tf *Typeface, text string, pointSize float64, raster *otraster.Raster, subpixel bool) error {
	return otraster.New(tf).Rasterize(text, pointSize, raster, subpixel)
}

// RasterFor allocates a raster just large enough to hold text rendered by
// Rasterize at pointSize and resolution dpi: as wide as the sum of the
// advances and as high as the scaled ascender plus descender.
// Glyphs extending beyond their advance or the font's ascender are clipped.
func RasterFor(tf *Typeface, text string, pointSize float64, dpi int) *otraster.Raster {
	z := otraster.New(tf)
	_, pen := z.Layout(text, pointSize, dpi)
	scale := z.Scale(pointSize, dpi)
	w := int(math.Ceil(float64(pen.X) / 64))
	h := int(z.BaselineFor(scale) + math.Ceil(-float64(tf.Descender())*scale))
	return otraster.NewRaster(max(w, 1), max(h, 1), dpi)
}
