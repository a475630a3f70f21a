package ot

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/truetype/internal/ttfbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func pt(x, y int16, on bool) ttfbuild.Point {
	return ttfbuild.Point{X: x, Y: y, On: on}
}

func TestSimpleGlyphDecoding(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	// exercise short, long, same and negative coordinate deltas as well as
	// flag repetition
	contour := []ttfbuild.Point{
		pt(0, 0, true), pt(0, 0, true), pt(0, 0, true), pt(1000, 0, true),
		pt(1000, -300, false), pt(-20, -300, true), pt(-20, 5, true),
	}
	f := &ttfbuild.Font{Glyphs: []ttfbuild.Glyph{{Advance: 500}, {Advance: 1000,
		Contours: [][]ttfbuild.Point{contour, {pt(1, 2, true), pt(3, 4, false), pt(5, 6, true)}}}}}
	otf := parseTestFont(t, f)
	g, err := otf.Glyf.Glyph(1)
	require.NoError(t, err)
	assert.False(t, g.IsComposite())
	assert.Equal(t, int16(2), g.NumberOfContours)
	require.Len(t, g.Contours, 2)
	require.Len(t, g.Contours[0], len(contour))
	for i, p := range contour {
		assert.Equal(t, Point{p.X, p.Y, p.On}, g.Contours[0][i], "point %d", i)
	}
	assert.Equal(t, []Point{{1, 2, true}, {3, 4, false}, {5, 6, true}}, g.Contours[1])
	assert.Equal(t, int16(-20), g.XMin)
	assert.Equal(t, int16(-300), g.YMin)
	//
	o, err := otf.Glyf.Outline(1)
	require.NoError(t, err)
	assert.Equal(t, 10, o.PointCount())
	assert.Equal(t, Rect{-20, -300, 1000, 6}, o.Bounds)
}

func TestEmptyGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	otf := parseTestFont(t, squareFont())
	g, err := otf.Glyf.Glyph(1)
	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
	o, err := otf.Glyf.Outline(1)
	require.NoError(t, err)
	assert.Empty(t, o.Contours)
	assert.True(t, o.Bounds.Empty())
	_, err = otf.Glyf.Glyph(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLongLoca(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	f := squareFont()
	f.LongLoca = true
	otf := parseTestFont(t, f)
	o, err := otf.Glyf.Outline(2)
	require.NoError(t, err)
	assert.Len(t, o.Contours, 2)
	assert.Equal(t, Rect{0, 0, 600, 700}, o.Bounds)
}

func TestCorruptGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	t.Run("decreasing loca", func(t *testing.T) {
		f := squareFont()
		// short loca: glyph 1 starts after glyph 2
		f.Tables = map[string][]byte{"loca": shorts(0, 20, 10, 40)}
		otf := parseTestFont(t, f)
		_, err := otf.Glyf.Glyph(1)
		assert.ErrorIs(t, err, ErrMalformedFont)
	})
	t.Run("loca beyond glyf", func(t *testing.T) {
		f := squareFont()
		f.Tables = map[string][]byte{"loca": shorts(0, 20, 20, 0x4000)}
		otf := parseTestFont(t, f)
		_, err := otf.Glyf.Glyph(2)
		assert.ErrorIs(t, err, ErrMalformedFont)
		_, err = otf.Glyf.Glyph(0) // other glyphs still work
		assert.NoError(t, err)
	})
	t.Run("flag repeat overflow", func(t *testing.T) {
		raw := shorts(1, 0, 0, 10, 10, 1, 0) // 1 contour, bbox, endPts=[1], no instructions
		raw = append(raw, 0x01|0x08, 5)      // on-curve, repeated 5 times
		f := &ttfbuild.Font{Glyphs: []ttfbuild.Glyph{{Advance: 500, Raw: raw}}}
		otf := parseTestFont(t, f)
		_, err := otf.Glyf.Outline(0)
		assert.ErrorIs(t, err, ErrMalformedFont)
	})
	t.Run("truncated coordinates", func(t *testing.T) {
		raw := shorts(1, 0, 0, 10, 10, 2, 0) // 3 points
		raw = append(raw, 0x01, 0x01, 0x01)  // long x and y for each
		raw = append(raw, shorts(5, 6)...)
		f := &ttfbuild.Font{Glyphs: []ttfbuild.Glyph{{Advance: 500, Raw: raw}}}
		otf := parseTestFont(t, f)
		_, err := otf.Glyf.Outline(0)
		assert.ErrorIs(t, err, ErrMalformedFont)
	})
	t.Run("contour ends not increasing", func(t *testing.T) {
		raw := shorts(2, 0, 0, 10, 10, 3, 3, 0)
		raw = append(raw, 0x31|0x08, 3)
		f := &ttfbuild.Font{Glyphs: []ttfbuild.Glyph{{Advance: 500, Raw: raw}}}
		otf := parseTestFont(t, f)
		_, err := otf.Glyf.Outline(0)
		assert.ErrorIs(t, err, ErrMalformedFont)
	})
}

// --- Composites ------------------------------------------------------------

func compositeFont(components ...[]ttfbuild.Component) *ttfbuild.Font {
	f := &ttfbuild.Font{Glyphs: []ttfbuild.Glyph{
		{Advance: 500},
		{Advance: 500, Contours: ttfbuild.Box(0, 0, 100, 200)},
	}}
	for _, c := range components {
		f.Glyphs = append(f.Glyphs, ttfbuild.Glyph{Advance: 500, Components: c})
	}
	return f
}

func TestCompositeIdentity(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	otf := parseTestFont(t, compositeFont([]ttfbuild.Component{{Glyph: 1}}))
	g, err := otf.Glyf.Glyph(2)
	require.NoError(t, err)
	require.True(t, g.IsComposite())
	require.Len(t, g.Components, 1)
	assert.Equal(t, GlyphIndex(1), g.Components[0].Glyph)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, g.Components[0].Transform)
	simple, err := otf.Glyf.Outline(1)
	require.NoError(t, err)
	composite, err := otf.Glyf.Outline(2)
	require.NoError(t, err)
	assert.Equal(t, simple, composite)
}

func TestCompositeTransforms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	tests := []struct {
		name   string
		comp   ttfbuild.Component
		bounds Rect
	}{
		{"offset", ttfbuild.Component{Glyph: 1, DX: 300, DY: -50}, Rect{300, -50, 400, 150}},
		{"byte offset", ttfbuild.Component{Glyph: 1, DX: 10, DY: -20}, Rect{10, -20, 110, 180}},
		{"uniform scale", ttfbuild.Component{Glyph: 1, Scale: []float32{0.5}}, Rect{0, 0, 50, 100}},
		{"xy scale", ttfbuild.Component{Glyph: 1, Scale: []float32{1.5, 0.5}}, Rect{0, 0, 150, 100}},
		{"mirror", ttfbuild.Component{Glyph: 1, DX: 500, Scale: []float32{-1, 1}}, Rect{400, 0, 500, 200}},
		{"two by two (rotate 90°)", ttfbuild.Component{Glyph: 1, Scale: []float32{0, 1, -1, 0}},
			Rect{-200, 0, 0, 100}},
		{"unscaled offset", ttfbuild.Component{Glyph: 1, DX: 100, Scale: []float32{0.5}}, Rect{100, 0, 150, 100}},
		{"scaled offset", ttfbuild.Component{Glyph: 1, DX: 100, Scale: []float32{0.5}, Flags: 0x0800},
			Rect{50, 0, 100, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			otf := parseTestFont(t, compositeFont([]ttfbuild.Component{tt.comp}))
			o, err := otf.Glyf.Outline(2)
			require.NoError(t, err)
			assert.InDelta(t, tt.bounds.XMin, o.Bounds.XMin, 1e-3)
			assert.InDelta(t, tt.bounds.YMin, o.Bounds.YMin, 1e-3)
			assert.InDelta(t, tt.bounds.XMax, o.Bounds.XMax, 1e-3)
			assert.InDelta(t, tt.bounds.YMax, o.Bounds.YMax, 1e-3)
		})
	}
}

func TestCompositePointMatching(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	// second box is attached with its point 0 to point 2 (150,200) of the first
	otf := parseTestFont(t, compositeFont([]ttfbuild.Component{
		{Glyph: 1, DX: 50},
		{Glyph: 1, MatchPoints: true, DX: 2, DY: 0},
	}))
	o, err := otf.Glyf.Outline(2)
	require.NoError(t, err)
	require.Len(t, o.Contours, 2)
	assert.Equal(t, OutlinePoint{X: 150, Y: 200, OnCurve: true}, o.Contours[1][0])
	assert.Equal(t, Rect{50, 0, 250, 400}, o.Bounds)
	//
	otf = parseTestFont(t, compositeFont([]ttfbuild.Component{
		{Glyph: 1},
		{Glyph: 1, MatchPoints: true, DX: 9, DY: 0}, // no point 9 in parent
	}))
	_, err = otf.Glyf.Outline(2)
	assert.ErrorIs(t, err, ErrMalformedFont)
}

func TestNestedComposites(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	otf := parseTestFont(t, compositeFont(
		[]ttfbuild.Component{{Glyph: 1, DX: 10}},                       // 2
		[]ttfbuild.Component{{Glyph: 2, DX: 10}, {Glyph: 1}},           // 3
		[]ttfbuild.Component{{Glyph: 3, DY: 100, Scale: []float32{2}}}, // 4
	))
	o, err := otf.Glyf.Outline(4)
	require.NoError(t, err)
	require.Len(t, o.Contours, 2)
	assert.Equal(t, Rect{0, 100, 240, 500}, o.Bounds)
}

func TestCompositeCycles(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	otf := parseTestFont(t, compositeFont(
		[]ttfbuild.Component{{Glyph: 2}},             // 2 → 2
		[]ttfbuild.Component{{Glyph: 1}, {Glyph: 4}}, // 3 → 4
		[]ttfbuild.Component{{Glyph: 3}},             // 4 → 3
	))
	for _, g := range []GlyphIndex{2, 3, 4} {
		_, err := otf.Glyf.Outline(g)
		assert.ErrorIs(t, err, ErrMalformedFont, "glyph %d", g)
	}
	// diamond: both components reference the same glyph, which is not a cycle
	otf = parseTestFont(t, compositeFont(
		[]ttfbuild.Component{{Glyph: 1}},
		[]ttfbuild.Component{{Glyph: 2}, {Glyph: 2, DX: 100}},
	))
	o, err := otf.Glyf.Outline(3)
	require.NoError(t, err)
	assert.Len(t, o.Contours, 2)
}

func TestCompositeDepth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	chain := func(n int) *ttfbuild.Font {
		var comps [][]ttfbuild.Component
		for i := 0; i < n; i++ { // glyph 2+i references glyph 1+i
			comps = append(comps, []ttfbuild.Component{{Glyph: uint16(1 + i)}})
		}
		return compositeFont(comps...)
	}
	otf := parseTestFont(t, chain(MaxCompositeDepth))
	top := GlyphIndex(1 + MaxCompositeDepth)
	o, err := otf.Glyf.Outline(top)
	require.NoError(t, err)
	assert.Len(t, o.Contours, 1)
	//
	otf = parseTestFont(t, chain(MaxCompositeDepth+1))
	_, err = otf.Glyf.Outline(top + 1)
	assert.ErrorIs(t, err, ErrMalformedFont)
}

func TestCompositeFanOut(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	fan := func(g uint16) []ttfbuild.Component {
		comps := make([]ttfbuild.Component, 150)
		for i := range comps {
			comps[i] = ttfbuild.Component{Glyph: g}
		}
		return comps
	}
	// 2 = 150×box, 3 = 150×2, 4 = 150×3; 5 = 150×empty, 6 = 150×5, 7 = 150×6
	otf := parseTestFont(t, compositeFont(fan(1), fan(2), fan(3), fan(0), fan(5), fan(6)))
	o, err := otf.Glyf.Outline(2)
	require.NoError(t, err)
	assert.Equal(t, 600, o.PointCount())
	for _, g := range []GlyphIndex{3, 4} {
		_, err = otf.Glyf.Outline(g)
		assert.ErrorIs(t, err, ErrMalformedFont, "glyph %d exceeds the point limit", g)
	}
	o, err = otf.Glyf.Outline(6)
	require.NoError(t, err, "150+150·150 components are within limits")
	assert.Empty(t, o.Contours)
	_, err = otf.Glyf.Outline(7)
	assert.ErrorIs(t, err, ErrMalformedFont)
	assert.Contains(t, err.Error(), "components")
}

func TestCompositeReferencesMissingGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	otf := parseTestFont(t, compositeFont([]ttfbuild.Component{{Glyph: 77}}))
	_, err := otf.Glyf.Glyph(2)
	assert.ErrorIs(t, err, ErrMalformedFont)
}

// --- Contour segments ------------------------------------------------------

type segment struct {
	quad      bool
	p0, c, p1 OutlinePoint
}

func segmentsOf(c Contour) []segment {
	var segs []segment
	c.Segments(func(p0, p1 OutlinePoint) {
		segs = append(segs, segment{p0: p0, p1: p1})
	}, func(p0, ctrl, p1 OutlinePoint) {
		segs = append(segs, segment{quad: true, p0: p0, c: ctrl, p1: p1})
	})
	return segs
}

func on(x, y float32) OutlinePoint  { return OutlinePoint{X: x, Y: y, OnCurve: true} }
func off(x, y float32) OutlinePoint { return OutlinePoint{X: x, Y: y} }

func TestContourSegments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	t.Run("lines", func(t *testing.T) {
		segs := segmentsOf(Contour{on(0, 0), on(0, 10), on(10, 10)})
		require.Len(t, segs, 3)
		assert.Equal(t, on(10, 10), segs[2].p0)
		assert.Equal(t, on(0, 0), segs[2].p1)
	})
	t.Run("implied on-curve point", func(t *testing.T) {
		segs := segmentsOf(Contour{on(0, 0), off(0, 10), off(10, 10), on(10, 0)})
		require.Len(t, segs, 3)
		assert.True(t, segs[0].quad)
		assert.Equal(t, on(5, 10), segs[0].p1)
		assert.True(t, segs[1].quad)
		assert.Equal(t, on(5, 10), segs[1].p0)
		assert.Equal(t, on(10, 0), segs[1].p1)
		assert.False(t, segs[2].quad)
	})
	t.Run("starts off-curve, ends on-curve", func(t *testing.T) {
		segs := segmentsOf(Contour{off(0, 10), on(10, 10), on(10, 0), on(0, 0)})
		require.Len(t, segs, 3)
		assert.Equal(t, on(0, 0), segs[0].p0)
		assert.True(t, segs[0].quad)
		assert.Equal(t, on(0, 0), segs[2].p1)
	})
	t.Run("all off-curve", func(t *testing.T) {
		segs := segmentsOf(Contour{off(0, 0), off(0, 10), off(10, 10), off(10, 0)})
		require.Len(t, segs, 4)
		assert.Equal(t, on(5, 0), segs[0].p0, "start at midpoint of last and first")
		for i, s := range segs {
			assert.True(t, s.quad)
			assert.Equal(t, segs[(i+1)%4].p0, s.p1, "contour is continuous")
		}
	})
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, segmentsOf(nil))
		assert.Empty(t, segmentsOf(Contour{on(1, 1)}))
	})
}

// TestGoRegularOutlines cross-checks the on-curve points of some glyphs
// against the sfnt package of the Go image library.
func TestGoRegularOutlines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype.ot")
	defer teardown()
	//
	otf := parseGoRegular(t)
	ref, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	var buf sfnt.Buffer
	ppem := fixed.I(int(ref.UnitsPerEm()))
	for _, r := range "oAS8&" {
		g := otf.CMap.Lookup(r)
		require.NotZero(t, g)
		o, err := otf.Glyf.Outline(g)
		require.NoError(t, err)
		segs, err := ref.LoadGlyph(&buf, sfnt.GlyphIndex(g), ppem, nil)
		require.NoError(t, err)
		ends := map[fixed.Point26_6]bool{}
		moves := 0
		for _, s := range segs {
			if s.Op == sfnt.SegmentOpMoveTo {
				moves++
			}
			n := map[sfnt.SegmentOp]int{sfnt.SegmentOpMoveTo: 0, sfnt.SegmentOpLineTo: 0,
				sfnt.SegmentOpQuadTo: 1, sfnt.SegmentOpCubeTo: 2}[s.Op]
			ends[s.Args[n]] = true
		}
		assert.Equal(t, moves, len(o.Contours), "contours of %q", r)
		for _, c := range o.Contours {
			for _, p := range c {
				if !p.OnCurve {
					continue
				}
				// sfnt uses y pointing down
				q := fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(-p.Y * 64)}
				assert.True(t, ends[q], "on-curve point %v of %q not found", p, r)
			}
		}
	}
}
