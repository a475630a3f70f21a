package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/truetype"
	"github.com/npillmayer/truetype/ot"
	"github.com/npillmayer/truetype/otquery"
	"github.com/thatisuday/commando"
)

func runGlyphCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setupTracing(flags)
	fontName := strings.TrimSpace(args["font"].Value)
	if fontName == "" {
		fatalf("font is required")
	}
	tf, _ := mustLoadFont(fontName)
	glyphs, err := parseGlyphArgs(tf, args["glyphs"], flags["codepoints"])
	if err != nil {
		fatalf("%v", err)
	}
	points := mustFlagBool(flags["points"], "points")
	for _, g := range glyphs {
		printGlyph(tf, g, points)
	}
}

// parseGlyphArgs resolves characters and '#'-prefixed glyph indices.
func parseGlyphArgs(tf *truetype.Typeface, arg commando.ArgValue, cpFlag commando.FlagValue) ([]ot.GlyphIndex, error) {
	var glyphs []ot.GlyphIndex
	if cp, _ := cpFlag.GetString(); cp != "" && cp != "-" {
		runes, err := parseCodepoints(cp)
		if err != nil {
			return nil, err
		}
		for _, r := range runes {
			glyphs = append(glyphs, tf.GlyphIndexFor(r))
		}
		return glyphs, nil
	}
	for _, token := range splitCSVSpace(arg.Value) {
		if n, found := strings.CutPrefix(token, "#"); found && n != "" {
			i, err := strconv.Atoi(n)
			if err != nil || i < 0 || i >= tf.NumGlyphs() {
				return nil, fmt.Errorf("invalid glyph index %q", n)
			}
			glyphs = append(glyphs, ot.GlyphIndex(i))
			continue
		}
		for _, r := range token {
			glyphs = append(glyphs, tf.GlyphIndexFor(r))
		}
	}
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("no glyphs given")
	}
	return glyphs, nil
}

func printGlyph(tf *truetype.Typeface, g ot.GlyphIndex, points bool) {
	otf := tf.Font()
	r := otquery.CodePointForGlyph(otf, g)
	if r != 0 {
		fmt.Printf("glyph %d (%#U)\n", g, r)
	} else {
		fmt.Printf("glyph %d\n", g)
	}
	m := otquery.GlyphMetrics(otf, g)
	fmt.Printf("  advance=%d lsb=%d rsb=%d bbox=[%d %d %d %d]\n",
		m.Advance, m.LSB, m.RSB, m.BBox.MinX, m.BBox.MinY, m.BBox.MaxX, m.BBox.MaxY)
	raw, err := otf.Glyf.Glyph(g)
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}
	for _, c := range raw.Components {
		fmt.Printf("  component glyph=%d offset=(%d,%d) transform=%v match=%v\n",
			c.Glyph, c.DX, c.DY, c.Transform, c.MatchPoints)
	}
	outline, err := tf.OutlineFor(g)
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}
	fmt.Printf("  contours=%d points=%d bounds=%v\n", len(outline.Contours), outline.PointCount(), outline.Bounds)
	if !points {
		return
	}
	for i, c := range outline.Contours {
		sb := strings.Builder{}
		for _, p := range c {
			if p.OnCurve {
				sb.WriteString(fmt.Sprintf(" (%g,%g)", p.X, p.Y))
			} else {
				sb.WriteString(fmt.Sprintf(" [%g,%g]", p.X, p.Y))
			}
		}
		fmt.Printf("  contour %d:%s\n", i, sb.String())
	}
}
