/*
Package otface implements golang.org/x/image/font.Face for a truetype.Typeface.

Glyphs are rendered by package otraster, without hinting. A Face may be used
with font.Drawer to draw text onto any draw.Image:

	face := otface.NewFace(tf, &otface.Options{Size: 14, DPI: 96})
	d := font.Drawer{Dst: img, Src: image.Black, Face: face, Dot: fixed.P(10, 40)}
	d.DrawString("Hello")

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otface

import (
	"image"
	"math"

	"github.com/npillmayer/truetype"
	"github.com/npillmayer/truetype/ot"
	"github.com/npillmayer/truetype/otraster"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Options are optional arguments to NewFace.
type Options struct {
	Size float64 // font size in points, 0 means 12
	DPI  int     // resolution, 0 means 72
}

func (o *Options) size() float64 {
	if o == nil || o.Size <= 0 {
		return 12
	}
	return o.Size
}

func (o *Options) dpi() int {
	if o == nil || o.DPI <= 0 {
		return 72
	}
	return o.DPI
}

// Face is a font.Face for a typeface at a given size.
//
// Like all font.Face implementations, a Face is not safe for concurrent use.
// The mask returned by Glyph is only valid until the next call to Glyph.
type Face struct {
	tf    *truetype.Typeface
	size  float64
	dpi   int
	scale float64
	rz    *otraster.Rasterizer
	mask  otraster.Raster
}

var _ font.Face = (*Face)(nil)

// NewFace returns a font.Face for tf. opts may be nil.
func NewFace(tf *truetype.Typeface, opts *Options) *Face {
	f := &Face{
		tf:   tf,
		size: opts.size(),
		dpi:  opts.dpi(),
		rz:   otraster.New(tf),
	}
	f.scale = f.rz.Scale(f.size, f.dpi)
	return f
}

// Close is a no-op.
func (f *Face) Close() error { return nil }

// Kern returns 0: kerning is not supported.
func (f *Face) Kern(r0, r1 rune) fixed.Int26_6 { return 0 }

// Metrics returns the metrics of the face, derived from table hhea and from
// the outlines of 'x' and 'H'.
func (f *Face) Metrics() font.Metrics {
	asc, desc, gap := float64(f.tf.Ascender()), float64(f.tf.Descender()), float64(f.tf.LineGap())
	return font.Metrics{
		Height:     f.fixed(asc - desc + gap),
		Ascent:     f.fixed(asc),
		Descent:    f.fixed(-desc),
		XHeight:    f.fixed(f.heightOf('x')),
		CapHeight:  f.fixed(f.heightOf('H')),
		CaretSlope: image.Point{X: 0, Y: 1},
	}
}

func (f *Face) heightOf(r rune) float64 {
	g := f.tf.GlyphIndexFor(r)
	if g == 0 {
		return 0
	}
	o, err := f.tf.OutlineFor(g)
	if err != nil || len(o.Contours) == 0 {
		return 0
	}
	return float64(o.Bounds.YMax)
}

// GlyphAdvance returns the advance width of r's glyph. Code-points missing
// from the font use the missing glyph.
func (f *Face) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	aw, err := f.tf.AdvanceWidth(f.tf.GlyphIndexFor(r))
	if err != nil {
		return 0, false
	}
	return f.fixed(float64(aw)), true
}

// GlyphBounds returns the bounding box of r's glyph relative to the dot,
// with y pointing down, and its advance.
func (f *Face) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	adv, ok := f.GlyphAdvance(r)
	if !ok {
		return fixed.Rectangle26_6{}, 0, false
	}
	o, err := f.tf.OutlineFor(f.tf.GlyphIndexFor(r))
	if err != nil || len(o.Contours) == 0 {
		return fixed.Rectangle26_6{}, adv, true
	}
	b := o.Bounds
	return fixed.Rectangle26_6{
		Min: fixed.Point26_6{X: f.fixed(float64(b.XMin)), Y: f.fixed(-float64(b.YMax))},
		Max: fixed.Point26_6{X: f.fixed(float64(b.XMax)), Y: f.fixed(-float64(b.YMin))},
	}, adv, true
}

// Glyph renders r's glyph with its origin at dot. A glyph which cannot be
// decoded yields an empty mask, but still reports its advance.
func (f *Face) Glyph(dot fixed.Point26_6, r rune) (
	dr image.Rectangle, mask image.Image, maskp image.Point, advance fixed.Int26_6, ok bool) {
	//
	g := f.tf.GlyphIndexFor(r)
	if advance, ok = f.GlyphAdvance(r); !ok {
		return
	}
	o, err := f.tf.OutlineFor(g)
	if err != nil || len(o.Contours) == 0 {
		return image.Rectangle{}, &image.Alpha{}, image.Point{}, advance, true
	}
	x, y := float64(dot.X)/64, float64(dot.Y)/64
	b := o.Bounds
	dr = image.Rect(
		int(math.Floor(x+float64(b.XMin)*f.scale)),
		int(math.Floor(y-float64(b.YMax)*f.scale)),
		int(math.Ceil(x+float64(b.XMax)*f.scale)),
		int(math.Ceil(y-float64(b.YMin)*f.scale)),
	)
	if dr.Empty() {
		return image.Rectangle{}, &image.Alpha{}, image.Point{}, advance, true
	}
	f.prepareMask(dr.Dx(), dr.Dy())
	if err := f.rz.DrawGlyph(&f.mask, g, f.size, x-float64(dr.Min.X), y-float64(dr.Min.Y)); err != nil {
		return image.Rectangle{}, &image.Alpha{}, image.Point{}, advance, true
	}
	return dr, &image.Alpha{
		Pix:    f.mask.Pixels,
		Stride: f.mask.Stride,
		Rect:   image.Rect(0, 0, f.mask.Width, f.mask.Height),
	}, image.Point{}, advance, true
}

// prepareMask resizes and clears the glyph mask, re-using its pixels.
func (f *Face) prepareMask(w, h int) {
	n := w * h
	if cap(f.mask.Pixels) < n {
		f.mask.Pixels = make([]byte, n)
	}
	f.mask.Pixels = f.mask.Pixels[:n]
	f.mask.Clear()
	f.mask.Width, f.mask.Height, f.mask.Stride, f.mask.DPI = w, h, w, f.dpi
}

func (f *Face) fixed(units float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(units * f.scale * 64))
}

// Typeface returns the typeface of f.
func (f *Face) Typeface() *truetype.Typeface {
	return f.tf
}

// GlyphIndex returns the glyph rendered for r.
func (f *Face) GlyphIndex(r rune) ot.GlyphIndex {
	return f.tf.GlyphIndexFor(r)
}
