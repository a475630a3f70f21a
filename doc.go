/*
Package truetype parses TrueType fonts and renders text with them.

There is a certain confusion with the nomenclature of typesetting. We will
stick to the following definitions:

▪︎ A "typeface" is a parsed font file, e.g. "Go Regular". It knows how to
map code-points to glyphs and glyphs to outlines, all in font design units.

▪︎ A "raster" is a caller-owned buffer of 8-bit coverage values, with a
resolution in dots per inch. Rendering text means scaling outlines from
design units to raster pixels and scan-converting them.

Please note that Go (Golang) does use the terms "font" and "face"
differently. Package otface adapts a Typeface to golang.org/x/image/font.Face.

Typical usage:

	tf, err := truetype.ParseFont(goregular.TTF)
	if err != nil { … }
	raster := otraster.NewRaster(400, 60, 72)
	err = truetype.Rasterize(tf, "Hello", 48, raster, false)

A Typeface is immutable and may be shared between goroutines rendering
into distinct rasters.

# Status

Only the TrueType outline format is supported, and fonts must provide a
Unicode character map of format 4. There is no hinting, no kerning and
no shaping: glyphs are placed by their advance widths, one per code-point.

# Links

TrueType explained:
https://docs.microsoft.com/en-us/typography/opentype/spec/otff

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package truetype

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'truetype'
func tracer() tracing.Trace {
	return tracing.Select("truetype")
}
