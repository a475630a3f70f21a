package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/truetype"
	"github.com/npillmayer/truetype/ot"
	"github.com/npillmayer/truetype/otquery"
	"github.com/thatisuday/commando"
)

func runFontCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setupTracing(flags)
	fontName := strings.TrimSpace(args["font"].Value)
	if fontName == "" {
		fatalf("font is required")
	}
	tf, _ := mustLoadFont(fontName)
	for _, line := range fontSummary(tf) {
		fmt.Println(line)
	}
	otf := tf.Font()
	if len(args["tables"].Value) > 0 {
		printSelectedTables(otf, args["tables"].Value)
	}
	if mustFlagBool(flags["errors"], "errors") {
		for _, e := range otf.Errors() {
			fmt.Printf("error: %s\n", e.Error())
		}
		for _, w := range otf.Warnings() {
			fmt.Printf("warning: %s\n", w.String())
		}
	}
}

// fontSummary lists the names, global metrics, tables and parse issues of tf,
// one "Key: value" line each. Empty names are left out.
func fontSummary(tf *truetype.Typeface) []string {
	otf := tf.Font()
	var lines []string
	add := func(key, format string, args ...any) {
		lines = append(lines, key+": "+fmt.Sprintf(format, args...))
	}
	if tf.Path != "" {
		add("Path", "%s", tf.Path)
	}
	add("Type", "%s", otquery.FontType(otf))
	names := otquery.NameInfo(otf)
	for _, key := range []string{"family", "subfamily", "version"} {
		if v := names[key]; v != "" {
			add(strings.ToUpper(key[:1])+key[1:], "%s", v)
		}
	}
	m := otquery.FontMetrics(otf)
	add("Glyphs", "%d, units per em: %d", otf.NumGlyphs(), m.UnitsPerEm)
	add("Metrics", "ascent=%d descent=%d line-gap=%d max-advance=%d",
		m.Ascent, m.Descent, m.LineGap, m.MaxAdvance)
	add("Code-points", "%d", otquery.Coverage(otf).Count())
	tags := otf.TableTags()
	tagNames := make([]string, len(tags))
	for i, tag := range tags {
		tagNames[i] = tag.String()
	}
	add(fmt.Sprintf("Tables (%d)", len(tags)), "%s", strings.Join(tagNames, " "))
	add("Issues", "errors=%d warnings=%d critical=%d",
		len(otf.Errors()), len(otf.Warnings()), len(otf.CriticalErrors()))
	return lines
}

func printSelectedTables(otf *ot.Font, raw string) {
	for _, name := range splitCSVSpace(raw) {
		table := otf.Table(ot.T(name))
		if table == nil {
			fmt.Printf("table %s: missing\n", name)
			continue
		}
		off, size := table.Extent()
		fmt.Printf("table %s: offset=%d size=%d\n", name, off, size)
		switch name {
		case "head":
			if h, ok := otquery.HeadInfo(otf); ok {
				fmt.Printf("  %+v\n", h)
			}
		case "maxp":
			if mp, ok := otquery.MaxPInfo(otf); ok {
				fmt.Printf("  %+v\n", mp)
			}
		case "cmap":
			for _, rec := range otf.CMap.Records {
				status := "ok"
				if rec.Err != nil {
					status = rec.Err.Error()
				}
				fmt.Printf("  platform=%d encoding=%d format=%d: %s\n",
					rec.PlatformID, rec.EncodingID, rec.Format, status)
			}
		}
	}
}
