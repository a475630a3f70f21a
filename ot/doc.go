/*
Package ot reads the binary tables of TrueType fonts.

Intended audience for this package are glyph rasterizers and any
application needing to have the outline-relevant structure of a TrueType
font file available. It decodes exactly the tables needed to turn text
into outlines:

▪︎ the table directory (offset table and table records)

▪︎ 'cmap' (character to glyph mapping, subtable format 4)

▪︎ 'head', 'hhea', 'maxp' (global values: units per em, metric counts, glyph count)

▪︎ 'hmtx' (advance widths and left side bearings)

▪︎ 'loca' and 'glyf' (glyph outlines, simple and composite)

Every other table is kept as an uninterpreted byte range and may be
inspected by clients via Font.Table.

Package `ot` will not scale or render anything. Outlines are returned in
font design units; see package otraster for scan conversion.

# Errors

Structural problems of a font are reported as errors wrapping one of the
sentinel values ErrMalformedFont or ErrNoUsableCharacterMap, or as an
UnsupportedCmapFormatError. Fonts in the wild often contain recoverable
inconsistencies (tables out of order, missing sentinel segments, etc.).
These are accumulated as warnings and may be inspected after parsing.

# Status

Only TrueType outlines are supported. Fonts with CFF outlines ('OTTO')
are rejected, as are font collections.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'truetype.ot'
func tracer() tracing.Trace {
	return tracing.Select("truetype.ot")
}
