package otquery

import (
	"github.com/npillmayer/truetype/ot"
)

// HeadTableInfo is a typed query view over table 'head'.
// Values are decoded directly from the raw table bytes.
type HeadTableInfo struct {
	MajorVersion       uint16
	MinorVersion       uint16
	FontRevision       uint32
	CheckSumAdjustment uint32
	MagicNumber        uint32
	Flags              uint16
	UnitsPerEm         uint16
	Created            int64 // seconds since 1904-01-01
	Modified           int64
	XMin               int16
	YMin               int16
	XMax               int16
	YMax               int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	FontDirectionHint  int16
	IndexToLocFormat   int16
	GlyphDataFormat    int16
}

const headTableSize = 54

// HeadInfo decodes table 'head' from raw bytes.
// Returns (info, true) on success, or (zero, false) if table is missing/too short.
func HeadInfo(otf *ot.Font) (HeadTableInfo, bool) {
	var info HeadTableInfo
	c := tableCursor(otf, "head", headTableSize)
	if c == nil {
		return info, false
	}
	info.MajorVersion, info.MinorVersion = c.U16(), c.U16()
	info.FontRevision = c.U32()
	info.CheckSumAdjustment = c.U32()
	info.MagicNumber = c.U32()
	info.Flags = c.U16()
	info.UnitsPerEm = c.U16()
	info.Created = longDateTime(c)
	info.Modified = longDateTime(c)
	info.XMin, info.YMin = c.I16(), c.I16()
	info.XMax, info.YMax = c.I16(), c.I16()
	info.MacStyle = c.U16()
	info.LowestRecPPEM = c.U16()
	info.FontDirectionHint = c.I16()
	info.IndexToLocFormat = c.I16()
	info.GlyphDataFormat = c.I16()
	return info, c.Err() == nil
}

func longDateTime(c *ot.Cursor) int64 {
	hi := c.U32()
	lo := c.U32()
	return int64(uint64(hi)<<32 | uint64(lo))
}

// tableCursor returns a cursor over table tag, or nil if the font does not
// contain the table or the table is shorter than minSize.
func tableCursor(otf *ot.Font, tag string, minSize int) *ot.Cursor {
	if otf == nil {
		return nil
	}
	table := otf.Table(ot.T(tag))
	if table == nil {
		tracer().Debugf("font has no table %s", tag)
		return nil
	}
	b := table.Binary()
	if len(b) < minSize {
		tracer().Infof("table %s too short: %d < %d", tag, len(b), minSize)
		return nil
	}
	offset, _ := table.Extent()
	return ot.NewCursor(b, offset)
}
