package ot

import (
	"errors"
	"fmt"
)

// Error categories for font parsing. Every error returned from this package
// wraps one of these (or is an UnsupportedCmapFormatError), so clients may
// test with errors.Is and errors.As.
var (
	// ErrMalformedFont signals a structural violation of the binary container:
	// bad offsets, truncated data, inconsistent counts.
	ErrMalformedFont = errors.New("malformed font")

	// ErrNoUsableCharacterMap is returned if none of the cmap sub-tables
	// provides a Unicode mapping.
	ErrNoUsableCharacterMap = errors.New("no usable character map")

	// ErrIndexOutOfRange flags a glyph index beyond the number of glyphs of a font.
	// It indicates a programming error on the client side.
	ErrIndexOutOfRange = errors.New("glyph index out of range")
)

// UnsupportedCmapFormatError is returned for a cmap sub-table with a format
// other than 4 (segment mapping to delta values).
type UnsupportedCmapFormatError struct {
	Format     uint16
	PlatformID uint16
	EncodingID uint16
}

func (e UnsupportedCmapFormatError) Error() string {
	return fmt.Sprintf("unsupported cmap sub-table format %d (platform=%d, encoding=%d)",
		e.Format, e.PlatformID, e.EncodingID)
}

// ErrorSeverity grades the issues found while parsing.
type ErrorSeverity int

const (
	SeverityCritical ErrorSeverity = iota // the font cannot be used
	SeverityMajor                         // parts of the font may render incorrectly
	SeverityMinor                         // cosmetic or informational
)

var severityNames = [...]string{"CRITICAL", "MAJOR", "MINOR"}

func (s ErrorSeverity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// FontError is an issue of a font's binary structure, located by table,
// section and byte offset. It unwraps to its category, which is
// ErrMalformedFont unless Err says otherwise.
type FontError struct {
	Table    Tag
	Section  string // part of the table, e.g. "Format4" or "Contours"
	Issue    string
	Severity ErrorSeverity
	Offset   uint32 // absolute offset in the font data, 0 if unknown
	Err      error
}

func (e FontError) Error() string {
	where := fmt.Sprintf("%s/%s", e.Table, e.Section)
	if e.Offset > 0 {
		where += fmt.Sprintf(" at offset %d", e.Offset)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, where, e.Issue)
}

// Unwrap returns the error category of e.
func (e FontError) Unwrap() error {
	if e.Err == nil {
		return ErrMalformedFont
	}
	return e.Err
}

// FontWarning is an inconsistency which Parse tolerates.
type FontWarning struct {
	Table  Tag
	Issue  string
	Offset uint32 // 0 if unknown
}

func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// errorCollector accumulates the issues of a parsing run.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

// addError records an error and returns it for propagation.
func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) error {
	e := FontError{Table: table, Section: section, Issue: issue, Severity: severity, Offset: offset}
	ec.errors = append(ec.errors, e)
	return e
}

func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	tracer().Infof("%s: %s", table, issue)
	ec.warnings = append(ec.warnings, FontWarning{Table: table, Issue: issue, Offset: offset})
}

// errMalformed creates a critical FontError outside of a parsing run, i.e.
// when decoding glyphs on demand.
func errMalformed(table Tag, section string, format string, args ...any) error {
	return FontError{
		Table:    table,
		Section:  section,
		Issue:    fmt.Sprintf(format, args...),
		Severity: SeverityCritical,
	}
}
