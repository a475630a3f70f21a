package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/truetype/ot"
	"github.com/npillmayer/truetype/otquery"
	"github.com/pterm/pterm"
)

func infoOp(intp *Intp, op *Op) (error, bool) {
	otf := intp.tf.Font()
	data := [][]string{{"Property", "Value"}}
	names := otquery.NameInfo(otf)
	for _, key := range []string{"family", "subfamily", "full", "version", "postscript"} {
		if v, ok := names[key]; ok {
			data = append(data, []string{key, v})
		}
	}
	m := otquery.FontMetrics(otf)
	data = append(data,
		[]string{"type", otquery.FontType(otf)},
		[]string{"glyphs", strconv.Itoa(otf.NumGlyphs())},
		[]string{"units per em", fmt.Sprintf("%d", m.UnitsPerEm)},
		[]string{"ascent / descent", fmt.Sprintf("%d / %d", m.Ascent, m.Descent)},
		[]string{"line gap / height", fmt.Sprintf("%d / %d", m.LineGap, m.LineHeight())},
		[]string{"max advance", fmt.Sprintf("%d", m.MaxAdvance)},
		[]string{"code-points", fmt.Sprintf("%d", otquery.Coverage(otf).Count())},
	)
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if w := otf.Warnings(); len(w) > 0 {
		pterm.Warning.Printf("%d warnings during parsing\n", len(w))
		for _, warning := range w {
			pterm.Println("  " + warning.String())
		}
	}
	return nil, false
}

func mapOp(intp *Intp, op *Op) (error, bool) {
	text, ok := op.hasArg()
	if !ok {
		return fmt.Errorf("map: text missing"), false
	}
	data := [][]string{{"Code-point", "Glyph", "Advance"}}
	for _, r := range text {
		g := intp.tf.GlyphIndexFor(r)
		aw, _ := intp.tf.AdvanceWidth(g)
		data = append(data, []string{fmt.Sprintf("%#U", r), fmt.Sprintf("%d", g), fmt.Sprintf("%d", aw)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

func missingOp(intp *Intp, op *Op) (error, bool) {
	missing := otquery.MissingCodePoints(intp.tf.Font(), op.arg)
	if len(missing) == 0 {
		pterm.Success.Println("all code-points are covered")
		return nil, false
	}
	list := make([]string, len(missing))
	for i, r := range missing {
		list[i] = fmt.Sprintf("%#U", r)
	}
	pterm.Printf("not covered: %s\n", strings.Join(list, ", "))
	return nil, false
}

// glyphOp shows a glyph, given as "glyph:A" or by index as "glyph:#36".
func glyphOp(intp *Intp, op *Op) (error, bool) {
	arg, ok := op.hasArg()
	if !ok {
		return fmt.Errorf("glyph: code-point or #index missing"), false
	}
	var g ot.GlyphIndex
	if n, found := strings.CutPrefix(arg, "#"); found && n != "" {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 || i >= intp.tf.NumGlyphs() {
			return fmt.Errorf("glyph: invalid index %q", n), false
		}
		g = ot.GlyphIndex(i)
	} else {
		r := []rune(arg)[0]
		g = intp.tf.GlyphIndexFor(r)
		pterm.Printf("%#U → glyph %d\n", r, g)
	}
	otf := intp.tf.Font()
	m := otquery.GlyphMetrics(otf, g)
	pterm.Printf("advance=%d lsb=%d rsb=%d bbox=%v\n", m.Advance, m.LSB, m.RSB, m.BBox)
	raw, err := otf.Glyf.Glyph(g)
	if err != nil {
		return err, false
	}
	for _, c := range raw.Components {
		pterm.Printf("component glyph %d offset=(%d,%d) transform=%v\n", c.Glyph, c.DX, c.DY, c.Transform)
	}
	outline, err := intp.tf.OutlineFor(g)
	if err != nil {
		return err, false
	}
	pterm.Printf("%d contours, %d points, bounds %v\n", len(outline.Contours), outline.PointCount(), outline.Bounds)
	for i, c := range outline.Contours {
		sb := strings.Builder{}
		for _, p := range c {
			if p.OnCurve {
				sb.WriteString(fmt.Sprintf(" (%g,%g)", p.X, p.Y))
			} else {
				sb.WriteString(fmt.Sprintf(" [%g,%g]", p.X, p.Y))
			}
		}
		pterm.Printf("contour %d:%s\n", i, sb.String())
	}
	return nil, false
}
