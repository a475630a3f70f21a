package truetype

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/truetype/internal/ttfbuild"
	"github.com/npillmayer/truetype/ot"
	"github.com/npillmayer/truetype/otraster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func testFontDescription() *ttfbuild.Font {
	f := &ttfbuild.Font{
		UnitsPerEm: 1000,
		Ascender:   800,
		Descender:  -200,
		LineGap:    67,
		Glyphs: []ttfbuild.Glyph{
			{Advance: 500, Contours: ttfbuild.Box(50, 0, 450, 700)},
			{Advance: 250},
			{Advance: 600, Contours: ttfbuild.Box(0, 0, 600, 700)},
			{Advance: 600, Components: []ttfbuild.Component{{Glyph: 2}}},
		},
		Names: map[uint16]string{
			uint16(sfnt.NameIDFamily):    "Boxes",
			uint16(sfnt.NameIDSubfamily): "Bold",
		},
	}
	f.Map(' ', 1)
	f.Map('A', 2)
	f.Map('B', 3)
	return f
}

func testTypeface(t *testing.T) *Typeface {
	t.Helper()
	tf, err := ParseFont(testFontDescription().Bytes())
	require.NoError(t, err)
	return tf
}

func TestTypefaceQueries(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype")
	defer teardown()
	//
	tf := testTypeface(t)
	assert.Equal(t, 4, tf.NumGlyphs())
	assert.Equal(t, uint16(1000), tf.UnitsPerEm())
	assert.Equal(t, int16(800), tf.Ascender())
	assert.Equal(t, int16(-200), tf.Descender())
	assert.Equal(t, int16(67), tf.LineGap())
	assert.Equal(t, ot.GlyphIndex(2), tf.GlyphIndexFor('A'))
	assert.Equal(t, ot.GlyphIndex(0), tf.GlyphIndexFor('Z'), "unmapped code-points yield the missing glyph")
	aw, err := tf.AdvanceWidth(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(600), aw)
	_, err = tf.AdvanceWidth(4)
	assert.ErrorIs(t, err, ot.ErrIndexOutOfRange)
	o, err := tf.OutlineFor(3)
	require.NoError(t, err)
	assert.Equal(t, ot.Rect{XMin: 0, YMin: 0, XMax: 600, YMax: 700}, o.Bounds)
	o, err = tf.OutlineFor(1)
	require.NoError(t, err)
	assert.Empty(t, o.Contours)
	family, sub := tf.Names()
	assert.Equal(t, "Boxes", family)
	assert.Equal(t, "Bold", sub)
	assert.Equal(t, "typeface Boxes Bold (4 glyphs, 1000 upem)", tf.String())
}

func TestParseFontErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype")
	defer teardown()
	//
	data := testFontDescription().Bytes()
	_, err := ParseFont(data[:len(data)/2])
	assert.ErrorIs(t, err, ot.ErrMalformedFont, "truncated font")
	_, err = ParseFont(nil)
	assert.ErrorIs(t, err, ot.ErrMalformedFont, "empty input")
	//
	f := testFontDescription()
	f.Tables = map[string][]byte{"cmap": ttfbuild.CMap(
		ttfbuild.Subtable{PlatformID: 3, EncodingID: 1, Data: ttfbuild.Format6('A', []uint16{2})},
	)}
	_, err = ParseFont(f.Bytes())
	var unsupported ot.UnsupportedCmapFormatError
	require.True(t, errors.As(err, &unsupported), "expected UnsupportedCmapFormatError, got %v", err)
	assert.Equal(t, uint16(6), unsupported.Format)
	//
	f = testFontDescription()
	f.Tables = map[string][]byte{"cmap": ttfbuild.CMap(
		ttfbuild.Subtable{PlatformID: 1, EncodingID: 0, Data: ttfbuild.Format4(map[rune]uint16{'A': 2})},
	)}
	tf, err := ParseFont(f.Bytes())
	assert.ErrorIs(t, err, ot.ErrNoUsableCharacterMap)
	assert.Nil(t, tf, "no partial typeface is returned")
}

func TestLoadTypeface(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "boxes.ttf")
	require.NoError(t, os.WriteFile(path, testFontDescription().Bytes(), 0o644))
	tf, err := LoadTypeface(path)
	require.NoError(t, err)
	assert.Equal(t, path, tf.Path)
	assert.Equal(t, "Boxes", tf.FamilyName())
	//
	_, err = LoadTypeface(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	//
	broken := filepath.Join(t.TempDir(), "broken.ttf")
	require.NoError(t, os.WriteFile(broken, []byte("not a font"), 0o644))
	_, err = LoadTypeface(broken)
	assert.ErrorIs(t, err, ot.ErrMalformedFont)
	assert.Contains(t, err.Error(), broken)
}

func TestRasterizeScenario(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "truetype")
	defer teardown()
	//
	tf := testTypeface(t)
	raster := otraster.NewRaster(40, 48, 72)
	require.NoError(t, Rasterize(tf, "A", 48, raster, false))
	// 'A' is a box of 600×700 units, i.e. 28.8×33.6 pixels, standing on the
	// baseline at row ⌈38.4⌉ = 39.
	assert.Equal(t, byte(255), raster.At(10, 30))
	assert.Equal(t, byte(0), raster.At(30, 30), "right of the glyph")
	assert.Equal(t, byte(0), raster.At(10, 40), "below the baseline")
	assert.InDelta(t, 0.8*255, float64(raster.At(28, 30)), 1, "fractional coverage at the right edge")
	//
	err := Rasterize(tf, "A", 48, &otraster.Raster{Width: 10, Height: 10, Stride: 5, DPI: 72}, false)
	assert.ErrorIs(t, err, otraster.ErrInvalidRaster)
}

func TestRasterizeEmptyStringLeavesRaster(t *testing.T) {
	tf := testTypeface(t)
	raster := otraster.NewRaster(16, 16, 72)
	require.NoError(t, Rasterize(tf, "", 12, raster, false))
	assert.Equal(t, make([]byte, 16*16), raster.Pixels)
}

func TestRasterizeConcurrently(t *testing.T) {
	tf, err := ParseFont(goregular.TTF)
	require.NoError(t, err)
	reference := otraster.NewRaster(300, 40, 96)
	require.NoError(t, Rasterize(tf, "Concurrency & 0.25", 18, reference, false))
	require.NotEqual(t, make([]byte, len(reference.Pixels)), reference.Pixels)
	//
	const n = 8
	rasters := make([]*otraster.Raster, n)
	var wg sync.WaitGroup
	for i := range n {
		rasters[i] = otraster.NewRaster(300, 40, 96)
		wg.Add(1)
		go func(r *otraster.Raster) {
			defer wg.Done()
			_ = Rasterize(tf, "Concurrency & 0.25", 18, r, false)
		}(rasters[i])
	}
	wg.Wait()
	for i, r := range rasters {
		assert.Equal(t, reference.Pixels, r.Pixels, "raster %d differs", i)
	}
}

func TestRasterFor(t *testing.T) {
	tf := testTypeface(t)
	raster := RasterFor(tf, "AB ", 48, 72)
	// advances 28.8 + 28.8 + 12, ascender 38.4 → 39, descender 9.6 → 10
	assert.Equal(t, 70, raster.Width)
	assert.Equal(t, 49, raster.Height)
	assert.Equal(t, 72, raster.DPI)
	empty := RasterFor(tf, "", 48, 72)
	assert.Equal(t, 1, empty.Width)
	require.NoError(t, Rasterize(tf, "AB ", 48, raster, false))
	assert.Equal(t, byte(255), raster.At(40, 20))
}
