package main

import (
	"strings"
	"testing"

	"github.com/npillmayer/truetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestFontSummary(t *testing.T) {
	tf, err := truetype.ParseFont(goregular.TTF)
	require.NoError(t, err)
	lines := fontSummary(tf)
	require.NotEmpty(t, lines)
	assert.Equal(t, "Type: TrueType", lines[0], "no path line for parsed data")
	assert.Contains(t, lines, "Family: Go")
	assert.Contains(t, lines, "Subfamily: Regular")
	var tables string
	for _, l := range lines {
		if strings.HasPrefix(l, "Tables (") {
			tables = l
		}
	}
	assert.Contains(t, tables, "cmap")
	assert.Contains(t, tables, "glyf")
	assert.Equal(t, "Issues: errors=0 warnings=0 critical=0", lines[len(lines)-1])
}
