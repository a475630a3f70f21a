package otraster

import (
	"image"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/truetype/internal/ttfbuild"
	"github.com/npillmayer/truetype/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// otFont adapts a parsed font to interface Font.
type otFont struct {
	otf *ot.Font
}

func (f otFont) GlyphIndexFor(r rune) ot.GlyphIndex { return f.otf.CMap.Lookup(r) }
func (f otFont) AdvanceWidth(g ot.GlyphIndex) (uint16, error) {
	return f.otf.HMtx.GetAdvanceWidth(g)
}
func (f otFont) OutlineFor(g ot.GlyphIndex) (ot.Outline, error) { return f.otf.Glyf.Outline(g) }
func (f otFont) UnitsPerEm() uint16                             { return f.otf.UnitsPerEm() }
func (f otFont) Ascender() int16                                { return f.otf.HHea.Ascender }

func testFont(t *testing.T) Font {
	t.Helper()
	f := &ttfbuild.Font{
		UnitsPerEm: 1000,
		Ascender:   800,
		Descender:  -200,
		Glyphs: []ttfbuild.Glyph{
			{Advance: 500, LSB: 50, Contours: ttfbuild.Box(50, 0, 450, 700)},
			{Advance: 250},
			{Advance: 600, Contours: append(ttfbuild.Box(0, 0, 600, 700), ttfbuild.Hole(100, 100, 500, 600)...)},
			{Advance: 600, Components: []ttfbuild.Component{{Glyph: 2}}},
			{Advance: 300, Raw: []byte{0, 1, 0, 0, 0, 0, 0, 10, 0, 10, 0, 1, 0, 0, 0x09, 5}},
		},
	}
	f.Map(' ', 1)
	f.Map('A', 2)
	f.Map('B', 3)
	f.Map('x', 4)
	otf, err := ot.Parse(f.Bytes())
	require.NoError(t, err)
	return otFont{otf}
}

func inkOf(r *Raster) int {
	ink := 0
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			ink += int(r.At(x, y))
		}
	}
	return ink
}

func TestPenPosition(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	placements, pen := z.Layout("A", 48, 72)
	require.Len(t, placements, 1)
	assert.Equal(t, ot.GlyphIndex(2), placements[0].Glyph)
	assert.Equal(t, fixed.Int26_6(0), placements[0].Origin.X)
	assert.InDelta(t, 28.8, fromFixed(pen.X), 1.0/64)
	assert.InDelta(t, 28.8, fromFixed(placements[0].Advance), 1.0/64)
	assert.Equal(t, fixed.I(39), pen.Y, "baseline is ⌈800·0.048⌉")
	//
	placements, pen = z.Layout("AAAAA", 48, 72)
	require.Len(t, placements, 5)
	assert.InDelta(t, 4*28.8, fromFixed(placements[4].Origin.X), 1.0/64)
	assert.InDelta(t, 5*28.8, fromFixed(pen.X), 1.0/64)
	//
	z.PenX, z.Baseline, z.FixedBaseline = 10, 50, true
	_, pen = z.Layout("A", 48, 144)
	assert.InDelta(t, 10+2*28.8, fromFixed(pen.X), 1.0/64)
	assert.Equal(t, fixed.I(50), pen.Y)
}

func TestRasterizeEmptyString(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	r := NewRaster(20, 20, 72)
	r.Pixels[7] = 99
	require.NoError(t, New(testFont(t)).Rasterize("", 48, r, false))
	assert.Equal(t, 99, inkOf(r))
}

func TestRasterizeIsIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	r1, r2 := NewRaster(120, 50, 72), NewRaster(120, 50, 72)
	require.NoError(t, z.Rasterize("A AB", 48, r1, false))
	require.NoError(t, z.Rasterize("A AB", 48, r2, false))
	assert.Equal(t, r1.Pixels, r2.Pixels)
	assert.NotZero(t, inkOf(r1))
}

func TestRasterizeSpace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	r := NewRaster(40, 40, 72)
	require.NoError(t, z.Rasterize("   ", 48, r, false))
	assert.Zero(t, inkOf(r))
	_, pen := z.Layout(" ", 48, 72)
	assert.InDelta(t, 12, fromFixed(pen.X), 1.0/64)
}

func TestRasterizeCompositeLikeComponent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	r1, r2 := NewRaster(40, 50, 72), NewRaster(40, 50, 72)
	require.NoError(t, z.Rasterize("A", 48, r1, false))
	require.NoError(t, z.Rasterize("B", 48, r2, false))
	assert.Equal(t, r1.Pixels, r2.Pixels)
}

func TestRasterizeFullCoverage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	f := &ttfbuild.Font{
		UnitsPerEm: 1024,
		Ascender:   1024,
		Glyphs:     []ttfbuild.Glyph{{Advance: 512}, {Advance: 512, Contours: ttfbuild.Box(0, 0, 512, 512)}},
	}
	f.Map('S', 1)
	otf, err := ot.Parse(f.Bytes())
	require.NoError(t, err)
	for _, subpixel := range []bool{false, true} {
		r := NewRaster(40, 70, 72)
		require.NoError(t, New(otFont{otf}).Rasterize("S", 64, r, subpixel))
		// a 32×32 square in rows 32…63
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				inside := x < 32 && y >= 32 && y < 64
				if inside {
					require.Equal(t, byte(255), r.At(x, y), "pixel (%d,%d), subpixel=%v", x, y, subpixel)
				} else {
					require.Equal(t, byte(0), r.At(x, y), "pixel (%d,%d), subpixel=%v", x, y, subpixel)
				}
			}
		}
	}
}

func TestRasterizeCounter(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	r := NewRaster(80, 100, 72)
	require.NoError(t, New(testFont(t)).Rasterize("A", 100, r, false))
	// baseline at 80, outer box x 0…60 y 10…80, counter x 10…50 y 20…70
	assert.Equal(t, byte(0), r.At(30, 45), "counter must stay empty")
	assert.Equal(t, byte(255), r.At(5, 45))
	assert.Equal(t, byte(255), r.At(30, 15))
	assert.Equal(t, byte(0), r.At(30, 85))
}

func TestRasterizeDegradesLocally(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	// 'Q' is unmapped and renders the missing glyph
	r := NewRaster(40, 50, 72)
	require.NoError(t, z.Rasterize("Q", 48, r, false))
	assert.NotZero(t, inkOf(r))
	assert.Equal(t, byte(255), r.At(10, 20))
	// 'x' is corrupt, its advance is applied nevertheless
	r1, r2 := NewRaster(80, 50, 72), NewRaster(80, 50, 72)
	require.NoError(t, z.Rasterize("xA", 48, r1, false))
	z.PenX = 300 * 0.048
	require.NoError(t, z.Rasterize("A", 48, r2, false))
	assert.Equal(t, r2.Pixels, r1.Pixels)
}

func TestRasterizeSaturates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	r := NewRaster(40, 50, 72)
	require.NoError(t, z.Rasterize("A", 48, r, false))
	v1 := r.At(28, 30) // right edge of 'A' at x = 28.8
	require.True(t, v1 > 0 && v1 < 255, "expected partial coverage, have %d", v1)
	full := r.At(2, 30)
	require.Equal(t, byte(255), full)
	require.NoError(t, z.Rasterize("A", 48, r, false))
	assert.Equal(t, byte(min(255, 2*int(v1))), r.At(28, 30))
	assert.Equal(t, byte(255), r.At(2, 30))
}

func TestRasterizeRespectsStride(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	r := &Raster{Width: 10, Height: 45, Stride: 16, DPI: 72, Pixels: make([]byte, 45*16)}
	for y := 0; y < r.Height; y++ {
		for x := r.Width; x < r.Stride; x++ {
			r.Pixels[y*r.Stride+x] = 7
		}
	}
	z := New(testFont(t))
	z.PenX = -5
	require.NoError(t, z.Rasterize("AAA", 48, r, false))
	assert.NotZero(t, inkOf(r))
	for y := 0; y < r.Height; y++ {
		for x := r.Width; x < r.Stride; x++ {
			require.Equal(t, byte(7), r.Pixels[y*r.Stride+x], "padding byte %d of row %d", x, y)
		}
	}
}

func TestInvalidRaster(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	tests := []struct {
		name   string
		raster *Raster
	}{
		{"nil", nil},
		{"zero width", &Raster{Width: 0, Height: 10, Stride: 0, DPI: 72, Pixels: make([]byte, 10)}},
		{"stride too small", &Raster{Width: 10, Height: 10, Stride: 8, DPI: 72, Pixels: make([]byte, 100)}},
		{"no resolution", &Raster{Width: 10, Height: 10, Stride: 10, Pixels: make([]byte, 100)}},
		{"short pixels", &Raster{Width: 10, Height: 10, Stride: 12, DPI: 72, Pixels: make([]byte, 100)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, z.Rasterize("A", 12, tt.raster, false), ErrInvalidRaster)
			assert.ErrorIs(t, z.DrawGlyph(tt.raster, 2, 12, 0, 10), ErrInvalidRaster)
		})
	}
	// last row need not be padded to the full stride
	r := &Raster{Width: 10, Height: 10, Stride: 12, DPI: 72, Pixels: make([]byte, 9*12+10)}
	assert.NoError(t, r.Validate())
}

func TestDrawGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	z := New(testFont(t))
	r1, r2 := NewRaster(50, 50, 72), NewRaster(50, 50, 72)
	require.NoError(t, z.DrawGlyph(r1, 2, 48, 5, 45))
	z.PenX, z.Baseline, z.FixedBaseline = 5, 45, true
	require.NoError(t, z.Rasterize("A", 48, r2, false))
	assert.Equal(t, r2.Pixels, r1.Pixels)
	// corrupt glyph draws nothing
	r := NewRaster(50, 50, 72)
	require.NoError(t, z.DrawGlyph(r, 4, 48, 5, 45))
	assert.Zero(t, inkOf(r))
}

func TestRasterGray(t *testing.T) {
	r := &Raster{Width: 3, Height: 2, Stride: 4, DPI: 72, Pixels: []byte{1, 2, 3, 0, 4, 5, 6, 0}}
	img := r.Gray()
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, uint8(5), img.GrayAt(1, 1).Y)
	img.Pix[0] = 9
	assert.Equal(t, byte(9), r.At(0, 0), "image shares the pixels")
	r.Clear()
	assert.Zero(t, inkOf(r))
}

// TestInkAgainstVector compares the total coverage of some glyphs of Go Regular
// with the rendering of golang.org/x/image/vector.
func TestInkAgainstVector(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.raster")
	defer teardown()
	//
	otf, err := ot.Parse(goregular.TTF)
	require.NoError(t, err)
	ref, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	var buf sfnt.Buffer
	const size, w, h = 48, 60, 70
	for _, r := range "oAg&" {
		z := New(otFont{otf})
		z.PenX = 10
		raster := NewRaster(w, h, 72)
		require.NoError(t, z.Rasterize(string(r), size, raster, false))
		ink := inkOf(raster)
		//
		origin := z.BaselineFor(z.Scale(size, 72))
		g, err := ref.GlyphIndex(&buf, r)
		require.NoError(t, err)
		segs, err := ref.LoadGlyph(&buf, g, fixed.I(size), nil)
		require.NoError(t, err)
		v := vector.NewRasterizer(w, h)
		pt := func(p fixed.Point26_6) (float32, float32) {
			return 10 + float32(p.X)/64, float32(origin) + float32(p.Y)/64
		}
		for i, s := range segs {
			switch s.Op {
			case sfnt.SegmentOpMoveTo:
				if i > 0 {
					v.ClosePath()
				}
				v.MoveTo(pt(s.Args[0]))
			case sfnt.SegmentOpLineTo:
				v.LineTo(pt(s.Args[0]))
			case sfnt.SegmentOpQuadTo:
				bx, by := pt(s.Args[0])
				cx, cy := pt(s.Args[1])
				v.QuadTo(bx, by, cx, cy)
			case sfnt.SegmentOpCubeTo:
				bx, by := pt(s.Args[0])
				cx, cy := pt(s.Args[1])
				dx, dy := pt(s.Args[2])
				v.CubeTo(bx, by, cx, cy, dx, dy)
			}
		}
		v.ClosePath()
		dst := image.NewAlpha(image.Rect(0, 0, w, h))
		v.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
		refInk := 0
		for _, a := range dst.Pix {
			refInk += int(a)
		}
		require.NotZero(t, refInk)
		assert.InEpsilon(t, refInk, ink, 0.03, "ink of %q", r)
		//
		sub := NewRaster(w, h, 72)
		require.NoError(t, z.Rasterize(string(r), size, sub, true))
		assert.InEpsilon(t, refInk, inkOf(sub), 0.03, "subpixel ink of %q", r)
	}
}
