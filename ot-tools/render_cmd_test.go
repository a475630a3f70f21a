package main

import (
	"image"
	"testing"

	"github.com/npillmayer/truetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func inkOf(img *image.RGBA) int {
	ink := 0
	for i := 0; i < len(img.Pix); i += 4 {
		ink += 255 - int(img.Pix[i]) // red channel, black on white
	}
	return ink
}

func TestRenderMatchesReference(t *testing.T) {
	tf, err := truetype.ParseFont(goregular.TTF)
	require.NoError(t, err)
	opts := renderOptions{size: 36, dpi: 72, margin: 4}
	img, err := renderText(tf, "Rendering", opts)
	require.NoError(t, err)
	ref, err := renderReference(goregular.TTF, tf, "Rendering", opts)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), ref.Bounds())
	assert.InEpsilon(t, inkOf(ref), inkOf(img), 0.03)
	//
	both := stack(img, ref)
	assert.Equal(t, 2*img.Bounds().Dy()+1, both.Bounds().Dy())
}

func TestParseCodepoints(t *testing.T) {
	runes, err := parseCodepoints("U+0041, 0xC4 u+20AC")
	require.NoError(t, err)
	assert.Equal(t, []rune{'A', 'Ä', '€'}, runes)
	_, err = parseCodepoints("U+D800")
	assert.Error(t, err)
	_, err = parseCodepoints("xyz")
	assert.Error(t, err)
}
