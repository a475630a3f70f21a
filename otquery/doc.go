/*
Package otquery answers questions about a parsed TrueType font: names,
global and per-glyph metrics, raw header values, and the set of glyphs and
code-points covered by the character map.

All functions take an *ot.Font and are safe for concurrent use.
Metric values are returned in font design units (sfnt.Units).

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'truetype.query'
func tracer() tracing.Trace {
	return tracing.Select("truetype.query")
}
