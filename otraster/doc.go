/*
Package otraster renders text of TrueType fonts into gray-scale pixel buffers.

A Rasterizer lays out the glyphs of a string from left to right, scales
their outlines from font design units to device pixels, and scan-converts
them with coverage based anti-aliasing:

	raster := otraster.NewRaster(200, 80, 72)
	r := otraster.New(typeface)
	err := r.Rasterize("cefhijl", 48, raster, false)

The only error Rasterize reports is ErrInvalidRaster. Unmapped code-points
render the font's missing glyph, and glyphs whose outline cannot be decoded
are skipped (their advance width still moves the pen).

# Scan conversion

Outline edges accumulate signed area and cover into a cell buffer, after the
algorithm of golang.org/x/image/vector. Quadratic Bézier segments are
flattened in device space. Coverage is computed with the nonzero winding
rule, which TrueType outlines rely on for counters (the hole in an 'o').

Coverage is quantized to 8 bits and added to the existing pixel values,
saturating at 255.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otraster

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'truetype.raster'
func tracer() tracing.Trace {
	return tracing.Select("truetype.raster")
}
