// Package clitrace configures tracing for the command line tools of this module.
package clitrace

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
)

// CLIKey is the trace key of the command line tools.
const CLIKey = "truetype.cli"

// LibraryKeys are the trace keys of the library packages.
var LibraryKeys = []string{"truetype", "truetype.ot", "truetype.raster", "truetype.query"}

var levels = map[string]tracing.TraceLevel{
	"debug": tracing.LevelDebug,
	"info":  tracing.LevelInfo,
	"error": tracing.LevelError,
}

// ParseLevel accepts Debug, Info and Error, in any case.
func ParseLevel(name string) (tracing.TraceLevel, error) {
	if l, ok := levels[strings.ToLower(name)]; ok {
		return l, nil
	}
	return tracing.LevelError, fmt.Errorf("invalid trace level: %q", name)
}

// Setup routes all tracers to the Go log package. The CLI tracer is set to
// level cli, the library tracers to level lib.
func Setup(cli, lib string) error {
	for _, l := range []string{cli, lib} {
		if _, err := ParseLevel(l); err != nil {
			return err
		}
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
		"trace." + CLIKey: cli,
	}
	for _, key := range LibraryKeys {
		conf["trace."+key] = lib
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("cannot configure tracing: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}
