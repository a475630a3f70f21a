package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Debugf("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "glyph", "glyphs", "map":
		pterm.Info.Println("glyph / map")
		pterm.Println(`
	glyph:A      shows glyph index, metrics and outline of the glyph for 'A'
	glyph:#36    the same for glyph index 36
	map:text     lists the glyph index for each code-point of text

	Code-points the font does not map show glyph 0, the missing glyph.
	Composite glyphs are shown with their components resolved.
	`)
	case "render", "save", "size":
		pterm.Info.Println("render / save / size")
		pterm.Println(`
	size:36             sets the point size for rendering
	render:text         renders text and shows a preview in the terminal
	render:text:sub     the same with 3× horizontal subpixel sampling
	save:out.png        writes the last rendered text as a gray PNG image

	Rendering uses the resolution given by flag -dpi (default 72).
	`)
	case "tables", "table", "info":
		pterm.Info.Println("info / tables / table")
		pterm.Println(`
	info          names, font type and global metrics
	tables        table directory: tag, offset and length of each table
	table:head    decoded fields of table head (also hhea, maxp)
	missing:text  code-points of text not covered by the font
	`)
	default:
		pterm.Info.Println("General Help")
		names := make([]string, len(commands))
		for i, c := range commands {
			names[i] = c.name
		}
		pterm.Printf(`
	Commands are given as  command:argument[:argument]
	Available commands: %s.
	Enter help:command for details.
`, strings.Join(names, ", "))
	}
}
