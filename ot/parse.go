package ot

import (
	"fmt"
	"math"
)

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Font types of the offset table.
const (
	fontTypeTrueType   = 0x00010000
	fontTypeAppleTrue  = 0x74727565 // 'true'
	fontTypeCFF        = 0x4f54544f // 'OTTO'
	fontTypeCollection = 0x74746366 // 'ttcf'
)

// RequiredTables are the tables a font must contain to be rasterized.
var RequiredTables = []string{
	"head", "hhea", "maxp", "cmap", "hmtx", "loca", "glyf",
}

// ---------------------------------------------------------------------------

// Checked arithmetic operations to prevent integer overflow

// checkedMulInt checks for overflow in multiplication of two integers
func checkedMulInt(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > 0 && b > 0 && a > math.MaxInt/b {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	if a < 0 && b < 0 && a < math.MaxInt/b {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	if (a < 0 && b > 0 && a < math.MinInt/b) || (a > 0 && b < 0 && b < math.MinInt/a) {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	return a * b, nil
}

// checkedAddInt checks for overflow in addition of two integers
func checkedAddInt(a, b int) (int, error) {
	if b > 0 && a > math.MaxInt-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	if b < 0 && a < math.MinInt-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}

// checkedAddUint32 checks for overflow in addition of two uint32 values
func checkedAddUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}

// ---------------------------------------------------------------------------

// ReadDirectory reads the offset table and the table records of a font.
// It returns a mapping from table tag to the byte range of the table.
//
// ReadDirectory fails with ErrMalformedFont if the font is not a TrueType
// font, if the table count is larger than the data can hold, or if any
// table exceeds the font data.
func ReadDirectory(font []byte) (*FontHeader, map[Tag]TableEntry, error) {
	h, entries, err := readDirectory(font, &errorCollector{})
	if err != nil {
		return nil, nil, err
	}
	dir := make(map[Tag]TableEntry, len(entries))
	for _, e := range entries {
		dir[e.Tag] = e
	}
	return h, dir, nil
}

// readDirectory returns the table entries in the order of the table records.
func readDirectory(font []byte, ec *errorCollector) (*FontHeader, []TableEntry, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	c := NewCursor(font, 0)
	h := &FontHeader{
		FontType:      c.U32(),
		TableCount:    c.U16(),
		SearchRange:   c.U16(),
		EntrySelector: c.U16(),
		RangeShift:    c.U16(),
	}
	if c.Err() != nil {
		return nil, nil, ec.addError(T(""), "Header", fmt.Sprintf("font data too short (%d bytes)", len(font)),
			SeverityCritical, 0)
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	switch h.FontType {
	case fontTypeTrueType, fontTypeAppleTrue:
	case fontTypeCFF:
		return nil, nil, ec.addError(T(""), "Header", "unsupported outline format (CFF)", SeverityCritical, 0)
	case fontTypeCollection:
		return nil, nil, ec.addError(T(""), "Header", "font collections are not supported", SeverityCritical, 0)
	default:
		return nil, nil, ec.addError(T(""), "Header", fmt.Sprintf("font type not supported: %x", h.FontType),
			SeverityCritical, 0)
	}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	tableRecordsSize, err := checkedMulInt(16, int(h.TableCount))
	if err != nil || tableRecordsSize > c.Remaining() {
		return nil, nil, ec.addError(T(""), "TableRecords",
			fmt.Sprintf("table count %d exceeds font data", h.TableCount), SeverityCritical, 4)
	}
	entries := make([]TableEntry, 0, h.TableCount)
	prevTag := Tag(0)
	for i := 0; i < int(h.TableCount); i++ {
		tag := MakeTag(c.Bytes(4))
		_ = c.U32() // checksum
		off, size := c.U32(), c.U32()
		if tag < prevTag {
			ec.addWarning(tag, "table records not sorted by tag", uint32(12+16*i))
		}
		prevTag = tag
		if off&3 != 0 { // ignore checksums, but "all tables must begin on four byte boundries".
			ec.addWarning(tag, "table does not start on a 4-byte boundary", off)
		}
		// Validate table bounds before slicing to prevent panic
		tableEnd, err := checkedAddUint32(off, size)
		if err != nil {
			return nil, nil, ec.addError(tag, "Size", fmt.Sprintf("size calculation overflow: %v", err),
				SeverityCritical, off)
		}
		if tableEnd > uint32(len(font)) {
			return nil, nil, ec.addError(tag, "Bounds", fmt.Sprintf("bounds [%d:%d] exceed font size %d",
				off, tableEnd, len(font)), SeverityCritical, off)
		}
		entries = append(entries, TableEntry{Tag: tag, Offset: off, Length: size})
	}
	return h, entries, nil
}

// Parse parses a TrueType font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
//
// Parse fails with an error wrapping ErrMalformedFont for structural problems,
// with an UnsupportedCmapFormatError or an error wrapping ErrNoUsableCharacterMap
// if no Unicode character map can be used. No partial font is returned.
func Parse(font []byte) (*Font, error) {
	ec := &errorCollector{}
	h, entries, err := readDirectory(font, ec)
	if err != nil {
		return nil, err
	}
	otf := &Font{
		Header:    h,
		Directory: make(map[Tag]TableEntry, len(entries)),
		tables:    make(map[Tag]Table, len(entries)),
	}
	src := binarySegm(font)
	for _, e := range entries {
		if _, dup := otf.Directory[e.Tag]; dup {
			ec.addWarning(e.Tag, "duplicate table record ignored", e.Offset)
			continue
		}
		otf.Directory[e.Tag] = e
		t, err := parseTable(e.Tag, src[e.Offset:e.Offset+e.Length], e.Offset, e.Length, ec)
		if err != nil {
			return nil, err
		}
		otf.tables[e.Tag] = t
	}
	for _, name := range RequiredTables {
		if otf.tables[T(name)] == nil {
			return nil, ec.addError(T(name), "Missing", "required table missing", SeverityCritical, 0)
		}
	}
	if err := linkTables(otf, ec); err != nil {
		return nil, err
	}
	otf.issues = *ec
	return otf, nil
}

func parseTable(t Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	s := makeSpan(t, b, offset, size)
	switch t {
	case T("cmap"):
		return parseCMap(s, ec)
	case T("glyf"):
		return &GlyfTable{span: s}, nil
	case T("head"):
		return parseHead(s, ec)
	case T("hhea"):
		return parseHHea(s, ec)
	case T("hmtx"):
		return &HMtxTable{span: s}, nil
	case T("loca"):
		return &LocaTable{span: s}, nil
	case T("maxp"):
		return parseMaxP(s, ec)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return &RawTable{span: s}, nil
}

// linkTables sets the shortcuts to the interpreted tables and resolves their
// dependencies: hmtx needs hhea and maxp, loca needs head and maxp, glyf
// needs loca, cmap needs maxp.
func linkTables(otf *Font, ec *errorCollector) error {
	otf.Head = tableOf[*HeadTable](otf, T("head"))
	otf.HHea = tableOf[*HHeaTable](otf, T("hhea"))
	otf.MaxP = tableOf[*MaxPTable](otf, T("maxp"))
	otf.CMap = tableOf[*CMapTable](otf, T("cmap"))
	otf.HMtx = tableOf[*HMtxTable](otf, T("hmtx"))
	otf.Loca = tableOf[*LocaTable](otf, T("loca"))
	otf.Glyf = tableOf[*GlyfTable](otf, T("glyf"))
	numGlyphs := otf.MaxP.NumGlyphs

	// Validate hhea.NumberOfHMetrics against hmtx table capacity
	if err := otf.HMtx.parseAll(numGlyphs, otf.HHea.NumberOfHMetrics); err != nil {
		return ec.addError(T("hmtx"), "Metrics", err.Error(), SeverityCritical, otf.HMtx.offset)
	}

	// Validate head.IndexToLocFormat consistency with loca table
	loca := otf.Loca
	entrySize := 2
	switch otf.Head.IndexToLocFormat {
	case 0:
	case 1:
		entrySize = 4
		loca.long = true
	default:
		return ec.addError(T("head"), "IndexToLocFormat", fmt.Sprintf("invalid value: %d (must be 0 or 1)",
			otf.Head.IndexToLocFormat), SeverityCritical, otf.Head.offset+50)
	}
	expectedLocaSize, err := checkedMulInt(numGlyphs+1, entrySize)
	if err != nil {
		return ec.addError(T("loca"), "Size", fmt.Sprintf("size calculation overflow: %v", err), SeverityCritical, loca.offset)
	}
	if int(loca.length) < expectedLocaSize {
		return ec.addError(T("loca"), "Size", fmt.Sprintf("table size (%d) insufficient for %d glyphs (need %d)",
			loca.length, numGlyphs, expectedLocaSize), SeverityCritical, loca.offset)
	}
	loca.count = numGlyphs + 1
	otf.Glyf.loca = loca
	otf.Glyf.numGlyphs = numGlyphs

	cmap, inx, err := SelectCharacterMap(otf.CMap.Records)
	if err != nil {
		ec.errors = append(ec.errors, FontError{Table: T("cmap"), Section: "Encoding", Issue: err.Error(),
			Severity: SeverityCritical, Offset: otf.CMap.offset, Err: err})
		return err
	}
	rec := otf.CMap.Records[inx]
	tracer().Debugf("selected cmap sub-table platform=%d, encoding=%d", rec.PlatformID, rec.EncodingID)
	cmap.restrict(numGlyphs)
	otf.CMap.GlyphIndexMap = cmap
	return nil
}

// --- head, maxp, hhea ------------------------------------------------------

// tooSmall checks the minimum size of a table with fixed layout.
func tooSmall(s span, need uint32, ec *errorCollector) error {
	if s.length >= need {
		return nil
	}
	return ec.addError(s.tag, "Size", fmt.Sprintf("%s table too small: %d bytes (need %d)", s.tag, s.length, need),
		SeverityCritical, s.offset)
}

func parseHead(s span, ec *errorCollector) (Table, error) {
	if err := tooSmall(s, 54, ec); err != nil {
		return nil, err
	}
	t := &HeadTable{span: s}
	c := NewCursor(s.data, s.offset)
	c.Seek(16)
	t.Flags = c.U16()
	t.UnitsPerEm = c.U16()
	c.Seek(36)
	t.XMin, t.YMin = c.I16(), c.I16()
	t.XMax, t.YMax = c.I16(), c.I16()
	c.Seek(50)
	t.IndexToLocFormat = c.U16()
	if t.UnitsPerEm < 16 || t.UnitsPerEm > 16384 {
		return nil, ec.addError(s.tag, "UnitsPerEm", fmt.Sprintf("invalid value %d (must be 16…16384)", t.UnitsPerEm),
			SeverityCritical, s.offset+18)
	}
	return t, nil
}

func parseCMap(s span, ec *errorCollector) (Table, error) {
	records, err := parseCharacterMaps(s.tag, s.data, s.offset, ec)
	if err != nil {
		return nil, err
	}
	return &CMapTable{span: s, Records: records}, nil
}

// parseMaxP accepts version 0.5 as well as 1.0, as only numGlyphs is required.
func parseMaxP(s span, ec *errorCollector) (Table, error) {
	if err := tooSmall(s, 6, ec); err != nil {
		return nil, err
	}
	t := &MaxPTable{span: s}
	c := NewCursor(s.data, s.offset)
	t.Version = c.U32()
	t.NumGlyphs = int(c.U16())
	if t.NumGlyphs == 0 {
		return nil, ec.addError(s.tag, "NumGlyphs", "font has no glyphs", SeverityCritical, s.offset+4)
	}
	if t.Version == 0x00010000 && s.length >= 32 {
		c.Seek(30)
		t.MaxComponentDepth = int(c.U16())
	}
	return t, nil
}

// parseHHea reads table hhea, most importantly the number of long metric
// records of table hmtx.
func parseHHea(s span, ec *errorCollector) (Table, error) {
	if err := tooSmall(s, 36, ec); err != nil {
		return nil, err
	}
	t := &HHeaTable{span: s}
	c := NewCursor(s.data, s.offset)
	c.Seek(4)
	t.Ascender = c.I16()
	t.Descender = c.I16()
	t.LineGap = c.I16()
	t.AdvanceWidthMax = c.U16()
	t.MinLeftSideBearing = c.I16()
	t.MinRightSideBearing = c.I16()
	t.XMaxExtent = c.I16()
	t.CaretSlopeRise = c.I16()
	t.CaretSlopeRun = c.I16()
	t.CaretOffset = c.I16()
	c.Seek(34)
	t.NumberOfHMetrics = int(c.U16())
	if err := c.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
