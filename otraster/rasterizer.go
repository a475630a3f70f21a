package otraster

import (
	"math"

	"github.com/npillmayer/truetype/ot"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// Font is the view of a typeface a Rasterizer needs. Implementations must be
// safe for concurrent use if a font is shared between rasterizers.
type Font interface {
	GlyphIndexFor(r rune) ot.GlyphIndex
	AdvanceWidth(g ot.GlyphIndex) (uint16, error)
	OutlineFor(g ot.GlyphIndex) (ot.Outline, error)
	UnitsPerEm() uint16
	Ascender() int16
}

// DefaultFlatness is the default tolerance for flattening curves, in pixels.
const DefaultFlatness = 0.25

// Rasterizer renders a string of text into a Raster.
//
// The exported fields may be changed between calls. A Rasterizer re-uses
// internal buffers and is therefore not safe for concurrent use; create
// one per goroutine (they may share a Font).
type Rasterizer struct {
	PenX          float64 // horizontal start position of the pen, in pixels
	Baseline      float64 // y of the baseline in pixels, if FixedBaseline is set
	FixedBaseline bool    // if false, the baseline is ⌈ascender⌉ below the top row
	Normalize     bool    // apply Unicode NFC to the text before mapping
	Flatness      float64 // curve flattening tolerance in pixels, 0 means DefaultFlatness
	font          Font
	acc           accumulator
	row           []float32
}

// New creates a rasterizer for a font.
func New(f Font) *Rasterizer {
	return &Rasterizer{font: f, Flatness: DefaultFlatness}
}

// Scale returns the factor from font design units to pixels, i.e.
// pointSize · dpi / (72 · unitsPerEm).
func (z *Rasterizer) Scale(pointSize float64, dpi int) float64 {
	upem := z.font.UnitsPerEm()
	if upem == 0 {
		return 0
	}
	return pointSize * float64(dpi) / (72 * float64(upem))
}

// BaselineFor returns the y position of the baseline for a given scale.
func (z *Rasterizer) BaselineFor(scale float64) float64 {
	if z.FixedBaseline {
		return z.Baseline
	}
	return math.Ceil(float64(z.font.Ascender()) * scale)
}

// Placement is the position of a glyph within a line of text, in pixels.
type Placement struct {
	Rune    rune
	Glyph   ot.GlyphIndex
	Origin  fixed.Point26_6 // pen position on the baseline
	Advance fixed.Int26_6
}

// Layout positions the glyphs of text from left to right, starting at the
// pen position PenX on the baseline. It returns the placements and the pen
// position after the last glyph.
//
// Positions are accumulated exactly and rounded to 26.6 fixed point per
// placement, so rounding errors do not add up along the line.
func (z *Rasterizer) Layout(text string, pointSize float64, dpi int) ([]Placement, fixed.Point26_6) {
	scale := z.Scale(pointSize, dpi)
	baseline := z.BaselineFor(scale)
	if z.Normalize {
		text = norm.NFC.String(text)
	}
	placements := make([]Placement, 0, len(text))
	pen := z.PenX
	for _, r := range text {
		g := z.font.GlyphIndexFor(r)
		aw, err := z.font.AdvanceWidth(g)
		if err != nil {
			aw = 0
		}
		adv := float64(aw) * scale
		placements = append(placements, Placement{
			Rune:    r,
			Glyph:   g,
			Origin:  fixed.Point26_6{X: toFixed(pen), Y: toFixed(baseline)},
			Advance: toFixed(adv),
		})
		pen += adv
	}
	return placements, fixed.Point26_6{X: toFixed(pen), Y: toFixed(baseline)}
}

// Rasterize renders text at pointSize into raster, blending coverage into the
// existing pixels. If subpixel is set, coverage is sampled 3 times per pixel
// horizontally.
//
// Code-points without a glyph render as the missing glyph, and glyphs which
// cannot be decoded are skipped. The only error returned is ErrInvalidRaster.
func (z *Rasterizer) Rasterize(text string, pointSize float64, raster *Raster, subpixel bool) error {
	if err := raster.Validate(); err != nil {
		return err
	}
	placements, pen := z.Layout(text, pointSize, raster.DPI)
	tracer().Debugf("rasterize %d glyphs at %.1fpt, pen ends at %.2f", len(placements), pointSize, fromFixed(pen.X))
	if len(placements) == 0 {
		return nil
	}
	scale := z.Scale(pointSize, raster.DPI)
	z.begin(raster, subpixel)
	for _, p := range placements {
		o, err := z.font.OutlineFor(p.Glyph)
		if err != nil {
			continue
		}
		z.addOutline(o, scale, fromFixed(p.Origin.X), fromFixed(p.Origin.Y), subpixel)
	}
	z.emit(raster, subpixel)
	return nil
}

// DrawGlyph renders glyph g with its origin at (x, y) in pixels, y pointing down.
// An undecodable glyph draws nothing.
func (z *Rasterizer) DrawGlyph(raster *Raster, g ot.GlyphIndex, pointSize, x, y float64) error {
	if err := raster.Validate(); err != nil {
		return err
	}
	o, err := z.font.OutlineFor(g)
	if err != nil || len(o.Contours) == 0 {
		return nil
	}
	z.begin(raster, false)
	z.addOutline(o, z.Scale(pointSize, raster.DPI), x, y, false)
	z.emit(raster, false)
	return nil
}

func (z *Rasterizer) begin(raster *Raster, subpixel bool) {
	w := raster.Width
	if subpixel {
		w *= 3
	}
	z.acc.reset(w, raster.Height)
	if cap(z.row) < w {
		z.row = make([]float32, w)
	}
	z.row = z.row[:w]
}

// addOutline adds the edges of o, scaled and moved to the origin (ox, oy).
func (z *Rasterizer) addOutline(o ot.Outline, scale, ox, oy float64, subpixel bool) {
	sx := scale
	if subpixel {
		sx, ox = 3*scale, 3*ox
	}
	dev := func(p ot.OutlinePoint) (float32, float32) {
		return float32(ox + float64(p.X)*sx), float32(oy - float64(p.Y)*scale)
	}
	flatness := float32(z.Flatness)
	if flatness <= 0 {
		flatness = DefaultFlatness
	}
	for _, c := range o.Contours {
		started := false
		c.Segments(func(p0, p1 ot.OutlinePoint) {
			if !started {
				z.acc.moveTo(dev(p0))
				started = true
			}
			z.acc.lineTo(dev(p1))
		}, func(p0, ctrl, p1 ot.OutlinePoint) {
			if !started {
				z.acc.moveTo(dev(p0))
				started = true
			}
			bx, by := dev(ctrl)
			cx, cy := dev(p1)
			z.acc.quadTo(bx, by, cx, cy, flatness)
		})
		if started {
			z.acc.closePath()
		}
	}
}

// emit quantizes the accumulated coverage and adds it to the raster.
func (z *Rasterizer) emit(raster *Raster, subpixel bool) {
	y0, y1 := z.acc.rows()
	for y := y0; y < y1; y++ {
		z.acc.coverage(y, z.row)
		line := raster.Pixels[y*raster.Stride : y*raster.Stride+raster.Width]
		for x := range line {
			var c float32
			if subpixel {
				c = (z.row[3*x] + z.row[3*x+1] + z.row[3*x+2]) / 3
			} else {
				c = z.row[x]
			}
			if v := byte(math.Round(float64(c) * 255)); v > 0 {
				raster.add(y*raster.Stride+x, v)
			}
		}
	}
}

func toFixed(x float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(x * 64))
}

func fromFixed(x fixed.Int26_6) float64 {
	return float64(x) / 64
}
