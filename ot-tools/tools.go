package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/truetype"
	"github.com/npillmayer/truetype/internal/clitrace"
	"github.com/npillmayer/truetype/internal/fontload"
	"github.com/thatisuday/commando"
)

// tracer traces with key 'truetype.cli'
func tracer() tracing.Trace {
	return tracing.Select(clitrace.CLIKey)
}

func main() {
	commando.
		SetExecutableName("ot-tools").
		SetVersion("v0.1.0").
		SetDescription("CLI for rendering text with TrueType fonts and for font diagnostics.")

	commando.
		Register(nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil)

	commando.
		Register("render").
		SetDescription("Render text with a TrueType font to a PNG image.").
		SetShortDescription("text to image").
		AddArgument("font", "font file path, system font file name or Go font name (e.g. goregular)", "").
		AddArgument("text...", "text to render (variadic argument parts joined by comma by commando)", "").
		AddFlag("codepoints,c", "codepoints instead of text (comma/space separated, e.g. U+0041,U+00C4)", commando.String, "-").
		AddFlag("size,s", "font size in points", commando.String, "48").
		AddFlag("dpi,d", "resolution in dots per inch", commando.Int, 72).
		AddFlag("margin,m", "margin around the text in pixels", commando.Int, 8).
		AddFlag("subpixel,x", "sample coverage 3 times per pixel horizontally", commando.Bool, nil).
		AddFlag("reference,r", "add a rendering by golang.org/x/image/vector below, for comparison", commando.Bool, nil).
		AddFlag("show-bboxes,B", "draw red bounding-box outlines per rendered glyph", commando.Bool, nil).
		AddFlag("output,o", "output PNG file", commando.String, "ot-tools-render.png").
		SetAction(runRenderCommand)

	commando.
		Register("font").
		SetDescription("Print diagnostics and table information for a TrueType font.").
		SetShortDescription("font diagnostics").
		AddArgument("font", "font file path, system font file name or Go font name", "").
		AddArgument("tables...", "optional list of table tags (e.g. head,hhea,OS/2)", "").
		AddFlag("errors,e", "print parse errors and warnings", commando.Bool, nil).
		SetAction(runFontCommand)

	commando.
		Register("glyph").
		SetDescription("Print index, metrics and outline of glyphs.").
		SetShortDescription("glyph diagnostics").
		AddArgument("font", "font file path, system font file name or Go font name", "").
		AddArgument("glyphs...", "characters, or glyph indices prefixed by '#'", "").
		AddFlag("codepoints,c", "codepoints instead of characters (e.g. U+0041,U+00C4)", commando.String, "-").
		AddFlag("points,p", "print the outline points", commando.Bool, nil).
		SetAction(runGlyphCommand)

	commando.Parse(nil)
}

// setupTracing routes tracing to the Go log package. Flag --verbose turns on
// debug output for all tracers.
func setupTracing(flags map[string]commando.FlagValue) {
	level := "Error"
	if v, err := flags["verbose"].GetBool(); err == nil && v {
		level = "Debug"
	}
	if err := clitrace.Setup(level, level); err != nil {
		fatalf("%v", err)
	}
}

// parseTextInput returns the text to process, either from the variadic
// text argument or from the --codepoints flag.
func parseTextInput(textArg commando.ArgValue, cpFlag commando.FlagValue) (string, error) {
	cpSpec, err := cpFlag.GetString()
	if err != nil {
		return "", fmt.Errorf("invalid --codepoints flag: %w", err)
	}
	cpSpec = strings.TrimSpace(cpSpec)
	if cpSpec != "" && cpSpec != "-" {
		runes, err := parseCodepoints(cpSpec)
		if err != nil {
			return "", err
		}
		return string(runes), nil
	}
	text := strings.TrimSpace(textArg.Value)
	if text == "" {
		return "", fmt.Errorf("text is required (or use --codepoints)")
	}
	return text, nil
}

func parseCodepoints(list string) ([]rune, error) {
	tokens := splitCSVSpace(list)
	runes := make([]rune, 0, len(tokens))
	for _, token := range tokens {
		r, err := parseCodepointToken(token)
		if err != nil {
			return nil, err
		}
		runes = append(runes, r)
	}
	return runes, nil
}

func parseCodepointToken(token string) (rune, error) {
	t := strings.TrimSpace(token)
	t = strings.TrimPrefix(strings.TrimPrefix(t, "U+"), "u+")
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	if t == "" {
		return 0, fmt.Errorf("empty codepoint token")
	}
	n, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid codepoint %q: %w", token, err)
	}
	if n > 0x10FFFF || (n >= 0xD800 && n <= 0xDFFF) {
		return 0, fmt.Errorf("codepoint out of range: %q", token)
	}
	return rune(n), nil
}

func splitCSVSpace(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func mustLoadFont(name string) (*truetype.Typeface, []byte) {
	data, path, err := fontload.Bytes(name)
	if err != nil {
		fatalf("cannot load font %s: %v", name, err)
	}
	tf, err := truetype.ParseFont(data)
	if err != nil {
		fatalf("cannot parse font %s: %v", name, err)
	}
	tf.Path = path
	tracer().Debugf("loaded %s", tf)
	return tf, data
}

func mustFlagInt(flag commando.FlagValue, name string) int {
	n, err := flag.GetInt()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return n
}

func mustFlagBool(flag commando.FlagValue, name string) bool {
	b, err := flag.GetBool()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return b
}

func mustFlagFloat(flag commando.FlagValue, name string) float64 {
	s, err := flag.GetString()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		fatalf("invalid --%s flag: %q", name, s)
	}
	return f
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "ot-tools: "+format+"\n", args...)
	os.Exit(1)
}
