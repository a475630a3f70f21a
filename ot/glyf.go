package ot

import (
	"fmt"
	"slices"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// MaxCompositeDepth is the maximum nesting level of composite glyphs.
// Deeper nesting is treated as a corrupt font.
const MaxCompositeDepth = 16

// Point is a point of a glyph outline as stored in table glyf, in font units.
type Point struct {
	X, Y    int16
	OnCurve bool // false for quadratic Bézier control points
}

// Flags of composite glyph component records.
const (
	argsAreWords        = 0x0001
	argsAreXYValues     = 0x0002
	roundXYToGrid       = 0x0004
	weHaveAScale        = 0x0008
	moreComponents      = 0x0020
	weHaveAnXAndYScale  = 0x0040
	weHaveATwoByTwo     = 0x0080
	weHaveInstructions  = 0x0100
	useMyMetrics        = 0x0200
	overlapCompound     = 0x0400
	scaledComponentOffs = 0x0800
	unscaledCompOffs    = 0x1000
)

// Component is a reference to another glyph from within a composite glyph.
//
// The component's points are transformed by the 2×2 matrix Transform
// (xx, xy, yx, yy, i.e. x' = xx·x + yx·y, y' = xy·x + yy·y) and then
// moved. If MatchPoints is set, the offset is chosen such that point
// ChildPoint of the component lands on point ParentPoint of the glyph
// assembled so far. Otherwise it is (DX, DY), which will itself be
// transformed if ScaledOffset is set.
type Component struct {
	Glyph        GlyphIndex
	Flags        uint16
	DX, DY       int16
	MatchPoints  bool
	ParentPoint  uint16
	ChildPoint   uint16
	Transform    [4]float32
	ScaledOffset bool
}

// UseMyMetrics is true if the composite glyph should use this component's metrics.
func (c Component) UseMyMetrics() bool {
	return c.Flags&useMyMetrics != 0
}

var identity = [4]float32{1, 0, 0, 1}

// Glyph is a raw glyph record of table glyf. It is either simple, i.e. a
// list of contours, or composite, i.e. a list of components.
type Glyph struct {
	Index            GlyphIndex
	NumberOfContours int16 // negative for composite glyphs
	XMin, YMin       int16
	XMax, YMax       int16
	Contours         [][]Point
	Components       []Component
}

// IsComposite returns true if g consists of references to other glyphs.
func (g Glyph) IsComposite() bool {
	return g.NumberOfContours < 0
}

// IsEmpty returns true for glyphs without outline, e.g. the space character.
func (g Glyph) IsEmpty() bool {
	return len(g.Contours) == 0 && len(g.Components) == 0
}

// OutlinePoint is a point of a resolved outline, in font units.
type OutlinePoint struct {
	X, Y    float32
	OnCurve bool
}

// Contour is a closed sequence of outline points. Two consecutive off-curve
// points imply an on-curve point at their midpoint.
type Contour []OutlinePoint

// Rect is an axis aligned rectangle in font units, y pointing up.
type Rect struct {
	XMin, YMin, XMax, YMax float32
}

// Empty returns true if r has no area.
func (r Rect) Empty() bool {
	return r.XMin >= r.XMax || r.YMin >= r.YMax
}

// Outline is the geometry of a glyph with all components resolved,
// in font design units with y pointing up.
type Outline struct {
	Contours []Contour
	Bounds   Rect
}

// PointCount returns the total number of points of o.
func (o Outline) PointCount() int {
	n := 0
	for _, c := range o.Contours {
		n += len(c)
	}
	return n
}

func (o *Outline) computeBounds() {
	o.Bounds = Rect{}
	first := true
	for _, c := range o.Contours {
		for _, p := range c {
			if first {
				o.Bounds = Rect{p.X, p.Y, p.X, p.Y}
				first = false
				continue
			}
			o.Bounds.XMin = min(o.Bounds.XMin, p.X)
			o.Bounds.YMin = min(o.Bounds.YMin, p.Y)
			o.Bounds.XMax = max(o.Bounds.XMax, p.X)
			o.Bounds.YMax = max(o.Bounds.YMax, p.Y)
		}
	}
}

// --- glyf table ------------------------------------------------------------

// GlyfTable holds the glyph outlines of a font. Glyphs are located via
// table loca and decoded on demand.
//
// A GlyfTable is immutable and safe for concurrent use.
type GlyfTable struct {
	span
	loca      *LocaTable
	numGlyphs int
}

// NumGlyphs returns the number of glyphs of the font.
func (t *GlyfTable) NumGlyphs() int {
	return t.numGlyphs
}

// Glyph decodes the raw record of glyph g, without resolving components.
// A glyph with an empty loca range is returned as an empty simple glyph.
func (t *GlyfTable) Glyph(g GlyphIndex) (Glyph, error) {
	if t == nil || t.loca == nil {
		return Glyph{}, fmt.Errorf("%w: font has no glyph data", ErrMalformedFont)
	}
	if int(g) >= t.numGlyphs {
		return Glyph{}, fmt.Errorf("%w: glyph %d (font has %d glyphs)", ErrIndexOutOfRange, g, t.numGlyphs)
	}
	start, end, err := t.loca.GlyphRange(g)
	if err != nil {
		return Glyph{}, err
	}
	if end > uint32(len(t.data)) {
		return Glyph{}, errMalformed(t.tag, "Glyph",
			"glyph %d range [%d:%d] exceeds glyf size %d", g, start, end, len(t.data))
	}
	glyph := Glyph{Index: g}
	if start == end {
		return glyph, nil
	}
	c := NewCursor(t.data[start:end], t.offset+start)
	glyph.NumberOfContours = c.I16()
	glyph.XMin, glyph.YMin = c.I16(), c.I16()
	glyph.XMax, glyph.YMax = c.I16(), c.I16()
	if err := c.Err(); err != nil {
		return Glyph{}, err
	}
	if glyph.NumberOfContours >= 0 {
		glyph.Contours, err = t.decodeSimple(c, g, int(glyph.NumberOfContours))
	} else {
		glyph.Components, err = t.decodeComposite(c, g)
	}
	if err != nil {
		return Glyph{}, err
	}
	return glyph, nil
}

// Flags of simple glyph points.
const (
	onCurvePoint = 0x01
	xShortVector = 0x02
	yShortVector = 0x04
	repeatFlag   = 0x08
	xIsSameOrPos = 0x10
	yIsSameOrPos = 0x20
)

func (t *GlyfTable) decodeSimple(c *Cursor, g GlyphIndex, n int) ([][]Point, error) {
	if n == 0 {
		return nil, nil
	}
	endPts := c.U16Array(n)
	instrLen := int(c.U16())
	c.Skip(instrLen)
	if err := c.Err(); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		if endPts[i] <= endPts[i-1] {
			return nil, errMalformed(t.tag, "Contours", "glyph %d: contour end points not increasing", g)
		}
	}
	numPoints := int(endPts[n-1]) + 1
	flags := make([]byte, 0, numPoints)
	for len(flags) < numPoints {
		f := c.U8()
		flags = append(flags, f)
		if f&repeatFlag != 0 {
			r := int(c.U8())
			if len(flags)+r > numPoints {
				return nil, errMalformed(t.tag, "Flags", "glyph %d: flag repeat count overflows %d points", g, numPoints)
			}
			for ; r > 0; r-- {
				flags = append(flags, f)
			}
		}
		if err := c.Err(); err != nil {
			return nil, err
		}
	}
	points := make([]Point, numPoints)
	var x int16
	for i, f := range flags {
		switch {
		case f&xShortVector != 0:
			dx := int16(c.U8())
			if f&xIsSameOrPos == 0 {
				dx = -dx
			}
			x += dx
		case f&xIsSameOrPos == 0:
			x += c.I16()
		}
		points[i].X = x
		points[i].OnCurve = f&onCurvePoint != 0
	}
	var y int16
	for i, f := range flags {
		switch {
		case f&yShortVector != 0:
			dy := int16(c.U8())
			if f&yIsSameOrPos == 0 {
				dy = -dy
			}
			y += dy
		case f&yIsSameOrPos == 0:
			y += c.I16()
		}
		points[i].Y = y
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	contours := make([][]Point, n)
	start := 0
	for i, e := range endPts {
		contours[i] = points[start : int(e)+1 : int(e)+1]
		start = int(e) + 1
	}
	return contours, nil
}

func (t *GlyfTable) decodeComposite(c *Cursor, g GlyphIndex) ([]Component, error) {
	var components []Component
	for {
		comp := Component{Transform: identity}
		comp.Flags = c.U16()
		comp.Glyph = GlyphIndex(c.U16())
		var arg1, arg2 int32
		switch {
		case comp.Flags&argsAreWords != 0 && comp.Flags&argsAreXYValues != 0:
			arg1, arg2 = int32(c.I16()), int32(c.I16())
		case comp.Flags&argsAreWords != 0:
			arg1, arg2 = int32(c.U16()), int32(c.U16())
		case comp.Flags&argsAreXYValues != 0:
			arg1, arg2 = int32(c.I8()), int32(c.I8())
		default:
			arg1, arg2 = int32(c.U8()), int32(c.U8())
		}
		if comp.Flags&argsAreXYValues != 0 {
			comp.DX, comp.DY = int16(arg1), int16(arg2)
		} else {
			comp.MatchPoints = true
			comp.ParentPoint, comp.ChildPoint = uint16(arg1), uint16(arg2)
		}
		switch {
		case comp.Flags&weHaveAScale != 0:
			s := c.F2Dot14()
			comp.Transform = [4]float32{s, 0, 0, s}
		case comp.Flags&weHaveAnXAndYScale != 0:
			sx, sy := c.F2Dot14(), c.F2Dot14()
			comp.Transform = [4]float32{sx, 0, 0, sy}
		case comp.Flags&weHaveATwoByTwo != 0:
			comp.Transform = [4]float32{c.F2Dot14(), c.F2Dot14(), c.F2Dot14(), c.F2Dot14()}
		}
		comp.ScaledOffset = comp.Flags&scaledComponentOffs != 0 && comp.Flags&unscaledCompOffs == 0
		if err := c.Err(); err != nil {
			return nil, err
		}
		if int(comp.Glyph) >= t.numGlyphs {
			return nil, errMalformed(t.tag, "Component",
				"glyph %d references non-existent glyph %d", g, comp.Glyph)
		}
		components = append(components, comp)
		if comp.Flags&moreComponents == 0 {
			break
		}
	}
	// Trailing instructions are not needed without hinting.
	return components, nil
}

// --- Outline resolution ----------------------------------------------------

// compositeFrame is the state of resolving one composite glyph.
type compositeFrame struct {
	glyph     Glyph
	next      int          // next component to place
	contours  []Contour    // contours assembled so far
	ancestors []GlyphIndex // chain of glyphs from the root to this one
}

// Limits of a resolved composite glyph. Point numbers of a glyph are 16-bit,
// so no valid composite exceeds them, whatever components it shares.
const (
	MaxCompositePoints     = 65535
	MaxCompositeComponents = 65535
)

// Outline returns the outline of glyph g with all components resolved.
//
// Composite glyphs are resolved iteratively. A component referencing one of
// its own ancestors, nesting deeper than MaxCompositeDepth, or expanding to
// more than MaxCompositeComponents components or MaxCompositePoints points
// fails with ErrMalformedFont.
func (t *GlyfTable) Outline(g GlyphIndex) (Outline, error) {
	root, err := t.Glyph(g)
	if err != nil {
		return Outline{}, err
	}
	if !root.IsComposite() {
		o := Outline{Contours: simpleContours(root.Contours)}
		o.computeBounds()
		return o, nil
	}
	stack := arraystack.New()
	stack.Push(&compositeFrame{glyph: root, ancestors: []GlyphIndex{g}})
	components, points := 0, 0
	for {
		top, _ := stack.Peek()
		frame := top.(*compositeFrame)
		if frame.next < len(frame.glyph.Components) {
			comp := frame.glyph.Components[frame.next]
			frame.next++
			if components++; components > MaxCompositeComponents {
				return Outline{}, errMalformed(t.tag, "Component",
					"glyph %d: expands to more than %d components", g, MaxCompositeComponents)
			}
			if slices.Contains(frame.ancestors, comp.Glyph) {
				return Outline{}, errMalformed(t.tag, "Component",
					"glyph %d: cyclic reference to glyph %d", g, comp.Glyph)
			}
			child, err := t.Glyph(comp.Glyph)
			if err != nil {
				return Outline{}, err
			}
			if child.IsComposite() {
				if len(frame.ancestors) >= MaxCompositeDepth {
					return Outline{}, errMalformed(t.tag, "Component",
						"glyph %d: composite nesting exceeds depth %d", g, MaxCompositeDepth)
				}
				stack.Push(&compositeFrame{
					glyph:     child,
					ancestors: append(slices.Clip(frame.ancestors), comp.Glyph),
				})
				continue
			}
			for _, c := range child.Contours {
				points += len(c)
			}
			if points > MaxCompositePoints {
				return Outline{}, errMalformed(t.tag, "Component",
					"glyph %d: expands to more than %d points", g, MaxCompositePoints)
			}
			if err := frame.place(comp, simpleContours(child.Contours)); err != nil {
				return Outline{}, t.componentError(g, comp, err)
			}
			continue
		}
		stack.Pop()
		if stack.Empty() {
			o := Outline{Contours: frame.contours}
			o.computeBounds()
			return o, nil
		}
		top, _ = stack.Peek()
		parent := top.(*compositeFrame)
		comp := parent.glyph.Components[parent.next-1]
		if err := parent.place(comp, frame.contours); err != nil {
			return Outline{}, t.componentError(g, comp, err)
		}
	}
}

func (t *GlyfTable) componentError(g GlyphIndex, comp Component, err error) error {
	return errMalformed(t.tag, "Component", "glyph %d, component %d: %v", g, comp.Glyph, err)
}

// place transforms the contours of a resolved component and appends them to f.
func (f *compositeFrame) place(comp Component, contours []Contour) error {
	a, b, c, d := comp.Transform[0], comp.Transform[1], comp.Transform[2], comp.Transform[3]
	xform := func(p OutlinePoint) OutlinePoint {
		return OutlinePoint{X: a*p.X + c*p.Y, Y: b*p.X + d*p.Y, OnCurve: p.OnCurve}
	}
	var dx, dy float32
	if comp.MatchPoints {
		parent, ok := pointAt(f.contours, int(comp.ParentPoint))
		if !ok {
			return fmt.Errorf("parent point %d out of range", comp.ParentPoint)
		}
		child, ok := pointAt(contours, int(comp.ChildPoint))
		if !ok {
			return fmt.Errorf("child point %d out of range", comp.ChildPoint)
		}
		child = xform(child)
		dx, dy = parent.X-child.X, parent.Y-child.Y
	} else {
		dx, dy = float32(comp.DX), float32(comp.DY)
		if comp.ScaledOffset {
			off := xform(OutlinePoint{X: dx, Y: dy})
			dx, dy = off.X, off.Y
		}
	}
	for _, contour := range contours {
		placed := make(Contour, len(contour))
		for i, p := range contour {
			q := xform(p)
			placed[i] = OutlinePoint{X: q.X + dx, Y: q.Y + dy, OnCurve: p.OnCurve}
		}
		f.contours = append(f.contours, placed)
	}
	return nil
}

func pointAt(contours []Contour, n int) (OutlinePoint, bool) {
	for _, c := range contours {
		if n < len(c) {
			return c[n], true
		}
		n -= len(c)
	}
	return OutlinePoint{}, false
}

func simpleContours(raw [][]Point) []Contour {
	if len(raw) == 0 {
		return nil
	}
	contours := make([]Contour, 0, len(raw))
	for _, r := range raw {
		c := make(Contour, len(r))
		for i, p := range r {
			c[i] = OutlinePoint{X: float32(p.X), Y: float32(p.Y), OnCurve: p.OnCurve}
		}
		contours = append(contours, c)
	}
	return contours
}

// Segments walks a contour as a sequence of line and quadratic Bézier segments,
// inserting the implied on-curve points between consecutive off-curve points.
// For every segment, either line(p0, p1) or quad(p0, ctrl, p1) is called.
// The contour is closed, i.e. the last segment ends at the starting point.
func (c Contour) Segments(line func(p0, p1 OutlinePoint), quad func(p0, ctrl, p1 OutlinePoint)) {
	n := len(c)
	if n == 0 {
		return
	}
	// Find an on-curve starting point.
	var start OutlinePoint
	first := 0
	switch {
	case c[0].OnCurve:
		start, first = c[0], 1
	case c[n-1].OnCurve:
		start, first = c[n-1], 0
		n--
	default:
		start, first = midpoint(c[n-1], c[0]), 0
	}
	cur := start
	var ctrl OutlinePoint
	haveCtrl := false
	for i := first; i < n; i++ {
		p := c[i]
		if p.OnCurve {
			if haveCtrl {
				quad(cur, ctrl, p)
				haveCtrl = false
			} else {
				line(cur, p)
			}
			cur = p
			continue
		}
		if haveCtrl {
			mid := midpoint(ctrl, p)
			quad(cur, ctrl, mid)
			cur = mid
		}
		ctrl, haveCtrl = p, true
	}
	if haveCtrl {
		quad(cur, ctrl, start)
	} else if cur != start {
		line(cur, start)
	}
}

func midpoint(a, b OutlinePoint) OutlinePoint {
	return OutlinePoint{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, OnCurve: true}
}
