/*
Package fontload locates and loads fonts for the command line tools.

A font may be named in three ways, tried in this order:

▪︎ as one of the embedded Go fonts, e.g. "goregular" or "Go Mono"

▪︎ as a path to a font file

▪︎ as the file name of a system font, e.g. "DejaVuSans.ttf"
*/
package fontload

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// tracer writes to trace with key 'truetype.cli'
func tracer() tracing.Trace {
	return tracing.Select("truetype.cli")
}

// ErrFontNotFound is returned if a font name cannot be resolved.
var ErrFontNotFound = errors.New("font not found")

var embedded = map[string][]byte{
	"goregular":   goregular.TTF,
	"gobold":      gobold.TTF,
	"goitalic":    goitalic.TTF,
	"gomedium":    gomedium.TTF,
	"gomono":      gomono.TTF,
	"gomonobold":  gomonobold.TTF,
	"gosmallcaps": gosmallcaps.TTF,
}

// EmbeddedFonts lists the names of the embedded Go fonts.
func EmbeddedFonts() []string {
	names := make([]string, 0, len(embedded))
	for name := range embedded {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NormalizeFontname lower-cases a font name and strips white space and the
// file extension, e.g. "Go Regular.ttf" → "goregular".
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(fname)
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	fname = strings.ReplaceAll(fname, " ", "")
	fname = strings.ReplaceAll(fname, "_", "")
	fname = strings.ReplaceAll(fname, "-", "")
	return strings.ToLower(fname)
}

// Load resolves a font name and parses the font.
func Load(name string) (*truetype.Typeface, error) {
	data, path, err := Bytes(name)
	if err != nil {
		return nil, err
	}
	tf, err := truetype.ParseFont(data)
	if err != nil {
		if path != "" {
			return nil, fmt.Errorf("font %s: %w", path, err)
		}
		return nil, err
	}
	tf.Path = path
	return tf, nil
}

// Bytes resolves a font name and returns the font data, together with the
// path of the font file. The path is empty for embedded fonts.
func Bytes(name string) ([]byte, string, error) {
	if data, ok := embedded[NormalizeFontname(name)]; ok {
		tracer().Debugf("%s is an embedded Go font", name)
		return data, "", nil
	}
	path := name
	if fi, err := os.Stat(name); err != nil || fi.IsDir() {
		fpath, err := findfont.Find(name) // try to find as system font
		if err != nil || fpath == "" {
			return nil, "", fmt.Errorf("%w: %s", ErrFontNotFound, name)
		}
		tracer().Debugf("%s is a system font at %s", name, fpath)
		path = fpath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	tracer().Debugf("loaded font file %s", path)
	return data, path, nil
}
