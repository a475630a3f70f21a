package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/truetype"
	"github.com/npillmayer/truetype/internal/clitrace"
	"github.com/npillmayer/truetype/internal/fontload"
	"github.com/npillmayer/truetype/otraster"
	"github.com/pterm/pterm"
)

// tracer traces with key 'truetype.cli'
func tracer() tracing.Trace {
	return tracing.Select(clitrace.CLIKey)
}

func main() {
	initDisplay()
	tlevel := flag.String("trace", "Info", "Trace level of the CLI [Debug|Info|Error]")
	fontname := flag.String("font", "goregular", "Font to load (Go font name, file path or system font)")
	dpi := flag.Int("dpi", 72, "Resolution for rendering")
	flag.Parse()
	if err := clitrace.Setup(*tlevel, "Error"); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	pterm.Info.Println("Welcome to TrueType CLI")
	repl, err := readline.New("tt > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl, dpi: *dpi, size: 24}
	if err := intp.loadFont(*fontname); err != nil {
		tracer().Errorf(err.Error())
		os.Exit(4)
	}
	pterm.Info.Println("Quit with <ctrl>D")
	intp.REPL()
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	tf     *truetype.Typeface
	repl   *readline.Instance
	dpi    int
	size   float64          // point size for rendering
	raster *otraster.Raster // result of the last render command
}

func (intp *Intp) String() string {
	if intp == nil || intp.tf == nil {
		return "()"
	}
	family, sub := intp.tf.Names()
	return fmt.Sprintf("( font=%s %s, %.1fpt @ %d dpi )", family, sub, intp.size, intp.dpi)
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		op := parseCommand(line)
		err, quit := intp.execute(op)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

// Op is a parsed command line: an op-code and up to two arguments,
// separated by ':' as in "render:Hello World:sub".
type Op struct {
	code   int
	arg    string
	format string
}

// Op-codes, in the order of table commands.
const (
	QUIT int = iota
	HELP
	FONT // commands after FONT need a loaded font
	INFO
	TABLES
	TABLE
	MAP
	GLYPH
	MISSING
	SIZE
	RENDER
	SAVE
)

type command struct {
	name string
	run  func(*Intp, *Op) (error, bool)
}

var commands []command

func init() { // helpOp lists the commands, so this cannot be a static initializer
	commands = []command{
		{"quit", quitOp},
		{"help", helpOp},
		{"font", fontOp},
		{"info", infoOp},
		{"tables", tablesOp},
		{"table", tableOp},
		{"map", mapOp},
		{"glyph", glyphOp},
		{"missing", missingOp},
		{"size", sizeOp},
		{"render", renderOp},
		{"save", saveOp},
	}
}

func opCode(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for code, c := range commands {
		if c.name == name {
			return code, true
		}
	}
	return HELP, false
}

// parseCommand splits a line into op-code and arguments. Unknown commands
// are mapped to HELP.
func parseCommand(line string) *Op {
	c := strings.SplitN(line, ":", 3) // e.g.  "glyph:A" or "render:Hello:sub" or "help:render"
	code, _ := opCode(c[0])
	op := &Op{code: code, arg: getOptArg(c, 1), format: getOptArg(c, 2)}
	tracer().Debugf("%s: argument '%s'", commands[op.code].name, op.arg)
	return op
}

func (intp *Intp) execute(op *Op) (err error, stop bool) {
	if op.code < 0 || op.code >= len(commands) {
		return fmt.Errorf("unknown command code: %d", op.code), false
	}
	if op.code > FONT && intp.tf == nil {
		return ErrNoFont, false
	}
	return commands[op.code].run(intp, op)
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println("Goodbye!")
	return nil, true
}

// --- Font Loading -----------------------------------------------------

// ErrNoFont is reported for commands needing a font, if none is loaded.
var ErrNoFont = errors.New("no font loaded")

func fontOp(intp *Intp, op *Op) (error, bool) {
	name, ok := op.hasArg()
	if !ok {
		pterm.Printf("embedded fonts: %v\n", fontload.EmbeddedFonts())
		return nil, false
	}
	return intp.loadFont(name), false
}

func (intp *Intp) loadFont(fontname string) error {
	tf, err := fontload.Load(fontname)
	if err != nil {
		tracer().Errorf("cannot load font %s: %s", fontname, err)
		return err
	}
	intp.tf, intp.raster = tf, nil
	tracer().Infof("loaded %s", tf)
	pterm.Printf("font tables: %v\n", tf.Font().TableTags())
	return nil
}

// ----------------------------------------------------------------------

func getOptArg(s []string, inx int) string {
	if len(s) > inx {
		return s[inx]
	}
	return ""
}

func (op *Op) hasArg() (string, bool) {
	if op.arg == "" {
		return "", false
	}
	return op.arg, true
}
