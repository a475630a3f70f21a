package otquery

import (
	"github.com/npillmayer/truetype/ot"
)

// MaxPTableInfo is a typed query view over table 'maxp'.
// For version 1.0 tables, the TrueType profile fields are decoded as well.
type MaxPTableInfo struct {
	VersionFixed uint32
	NumGlyphs    uint16

	// TrueType profile fields (version 1.0 only)
	HasExtendedProfile    bool
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

const (
	maxpMinSize = 6
	maxpV10Size = 32
)

// MaxPInfo decodes table 'maxp' directly from raw bytes.
// Returns (info, true) on success, or (zero, false) if table is missing/too short.
func MaxPInfo(otf *ot.Font) (MaxPTableInfo, bool) {
	var info MaxPTableInfo
	c := tableCursor(otf, "maxp", maxpMinSize)
	if c == nil {
		return info, false
	}
	info.VersionFixed = c.U32()
	info.NumGlyphs = c.U16()
	if info.VersionFixed != 0x00010000 || c.Len() < maxpV10Size {
		return info, c.Err() == nil
	}
	info.HasExtendedProfile = true
	fields := []*uint16{
		&info.MaxPoints, &info.MaxContours,
		&info.MaxCompositePoints, &info.MaxCompositeContours,
		&info.MaxZones, &info.MaxTwilightPoints, &info.MaxStorage,
		&info.MaxFunctionDefs, &info.MaxInstructionDefs,
		&info.MaxStackElements, &info.MaxSizeOfInstructions,
		&info.MaxComponentElements, &info.MaxComponentDepth,
	}
	for _, f := range fields {
		*f = c.U16()
	}
	return info, c.Err() == nil
}
