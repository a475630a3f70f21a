package otquery

import (
	"fmt"
	"iter"

	"github.com/npillmayer/truetype/ot"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/unicode"
)

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

// nameKey identifies a NameRecord entry in table 'name'.
type nameKey struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16      // not interpreted
	Name     sfnt.NameID // see https://pkg.go.dev/golang.org/x/image/font/sfnt#NameID
}

// PlatformID is the platform of name and cmap records.
type PlatformID uint16

const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1 // not supported
	PlatformIDWindows   PlatformID = 3
)

// EncodingID is the platform specific encoding of name and cmap records.
type EncodingID uint16

const (
	EncodingIDUnicodeBMP    EncodingID = 3
	EncodingIDWindowsSymbol EncodingID = 0 // symbol fonts are not supported
	EncodingIDWindowsBMP    EncodingID = 1
)

// NamesRange yields decoded `(nameID, value)` pairs from a font's
// `name` table.
//
// Only UTF-16 encoded records (Unicode BMP and Windows BMP) are yielded,
// and malformed or out-of-bounds records are skipped.
func NamesRange(otf *ot.Font) iter.Seq2[sfnt.NameID, string] {
	return func(yield func(sfnt.NameID, string) bool) {
		c := tableCursor(otf, "name", nameHeaderSize)
		if c == nil {
			return
		}
		binary := otf.Table(ot.T("name")).Binary()
		c.Skip(2) // format
		count := int(c.U16())
		stringStorageOffset := int(c.U16())
		if stringStorageOffset > len(binary) || nameHeaderSize+count*nameRecordSize > len(binary) {
			tracer().Infof("name table with %d records is corrupt", count)
			return
		}
		for range count {
			key := nameKey{
				Platform: PlatformID(c.U16()),
				Encoding: EncodingID(c.U16()),
				Language: c.U16(),
				Name:     sfnt.NameID(c.U16()),
			}
			strLen := int(c.U16())
			start := stringStorageOffset + int(c.U16())
			if c.Err() != nil {
				return
			}
			if !isSupportedNameEncoding(key) {
				continue
			}
			end := start + strLen
			if end > len(binary) {
				continue
			}
			stringValue, err := decodeNameUTF16(binary[start:end])
			if err != nil || stringValue == "" {
				continue
			}
			if !yield(key.Name, stringValue) {
				return
			}
		}
	}
}

// nameInfoKeys are the keys of NameInfo for the name IDs it reports.
var nameInfoKeys = map[sfnt.NameID]string{
	sfnt.NameIDCopyright:        "copyright",
	sfnt.NameIDFamily:           "family",
	sfnt.NameIDSubfamily:        "subfamily",
	sfnt.NameIDUniqueIdentifier: "id",
	sfnt.NameIDFull:             "full",
	sfnt.NameIDVersion:          "version",
	sfnt.NameIDPostScript:       "postscript",
}

// NameInfo returns the most common name entries of a font as a map with keys
// "family", "subfamily", "full", "version", "postscript", "copyright" and "id".
// Keys without an entry in the font are missing from the map. If a name is
// present more than once, the first decodable entry wins.
func NameInfo(otf *ot.Font) map[string]string {
	info := make(map[string]string)
	for id, value := range NamesRange(otf) {
		key, ok := nameInfoKeys[id]
		if !ok {
			continue
		}
		if _, seen := info[key]; !seen {
			info[key] = value
		}
	}
	return info
}

func isSupportedNameEncoding(key nameKey) bool {
	return (key.Platform == PlatformIDUnicode && key.Encoding == EncodingIDUnicodeBMP) ||
		(key.Platform == PlatformIDWindows && key.Encoding == EncodingIDWindowsBMP)
}

func decodeNameUTF16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoder := enc.NewDecoder()
	s, err := decoder.Bytes(str)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}
