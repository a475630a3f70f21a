package otraster

import (
	"math"
)

// accumulator collects the signed area and cover of line segments, one cell
// per pixel, with y pointing down. Each row carries one extra cell at its
// end, which takes the contributions of edges right of the raster.
//
// The coverage of a pixel is the running sum of the cells of its row, up to
// and including the pixel's cell. Cover of opposite winding cancels out, so
// |sum| clamped to 1 yields the nonzero fill rule.
//
// The line algorithm follows package golang.org/x/image/vector.
type accumulator struct {
	width, height  int
	cells          []float32
	penX, penY     float32
	firstX, firstY float32
	yMin, yMax     int // rows touched
}

func (a *accumulator) reset(width, height int) {
	a.width, a.height = width, height
	n := (width + 1) * height
	if cap(a.cells) < n {
		a.cells = make([]float32, n)
	} else {
		a.cells = a.cells[:n]
		clear(a.cells)
	}
	a.yMin, a.yMax = height, 0
	a.penX, a.penY, a.firstX, a.firstY = 0, 0, 0, 0
}

func (a *accumulator) moveTo(x, y float32) {
	a.firstX, a.firstY = x, y
	a.penX, a.penY = x, y
}

func (a *accumulator) closePath() {
	a.lineTo(a.firstX, a.firstY)
}

// quadTo flattens a quadratic Bézier segment from the pen via (bx, by) to
// (cx, cy) into n lines, where the deviation of each line from the curve is
// at most flatness.
func (a *accumulator) quadTo(bx, by, cx, cy, flatness float32) {
	ax, ay := a.penX, a.penY
	ex, ey := (ax-2*bx+cx)/4, (ay-2*by+cy)/4
	dev := float32(math.Hypot(float64(ex), float64(ey)))
	n := 1
	if dev > flatness {
		n = min(int(math.Ceil(math.Sqrt(float64(dev/flatness)))), maxQuadSteps)
	}
	for i := 1; i < n; i++ {
		t := float32(i) / float32(n)
		mt := 1 - t
		x := float32(mt*mt*ax) + float32(2*mt*t*bx) + float32(t*t*cx)
		y := float32(mt*mt*ay) + float32(2*mt*t*by) + float32(t*t*cy)
		a.lineTo(x, y)
	}
	a.lineTo(cx, cy)
}

const maxQuadSteps = 256

func (a *accumulator) lineTo(bx, by float32) {
	ax, ay := a.penX, a.penY
	a.penX, a.penY = bx, by
	dir := float32(1)
	if ay > by {
		dir, ax, ay, bx, by = -1, bx, by, ax, ay
	}
	// Nearly horizontal segments are numerically unstable and contribute
	// (almost) nothing.
	if by-ay <= 0.000001 {
		return
	}
	dxdy := (bx - ax) / (by - ay)
	if by <= 0 || ay >= float32(a.height) {
		return
	}
	if ay < 0 { // skip rows above the raster
		ax += float32(-ay * dxdy)
		ay = 0
	}
	x := ax
	y := int(math.Floor(float64(ay)))
	yEnd := min(int(math.Ceil(float64(by))), a.height)
	a.yMin, a.yMax = min(a.yMin, y), max(a.yMax, yEnd)
	w := a.width
	for ; y < yEnd; y++ {
		dy := min(float32(y+1), by) - max(float32(y), ay)
		xNext := x + float32(dy*dxdy)
		buf := a.cells[y*(w+1) : (y+1)*(w+1)]
		d := float32(dy * dir)
		x0, x1 := x, xNext
		if x > xNext {
			x0, x1 = x1, x0
		}
		x0i := int(math.Floor(float64(x0)))
		x0Floor := float32(x0i)
		x1i := int(math.Ceil(float64(x1)))
		x1Ceil := float32(x1i)

		if x1i <= x0i+1 {
			xmf := float32(0.5*(x+xNext)) - x0Floor
			buf[clamp(x0i, w)] += d - float32(d*xmf)
			buf[clamp(x0i+1, w)] += float32(d * xmf)
		} else {
			s := 1 / (x1 - x0)
			x0f := x0 - x0Floor
			oneMinusX0f := 1 - x0f
			a0 := float32(0.5 * s * oneMinusX0f * oneMinusX0f)
			x1f := x1 - x1Ceil + 1
			am := float32(0.5 * s * x1f * x1f)
			buf[clamp(x0i, w)] += float32(d * a0)
			if x1i == x0i+2 {
				buf[clamp(x0i+1, w)] += float32(d * (1 - a0 - am))
			} else {
				a1 := float32(s * (1.5 - x0f))
				buf[clamp(x0i+1, w)] += float32(d * (a1 - a0))
				spread(buf, x0i+2, x1i-1, float32(d*s))
				a2 := a1 + float32(s*float32(x1i-x0i-3))
				buf[clamp(x1i-1, w)] += float32(d * (1 - a2 - am))
			}
			buf[clamp(x1i, w)] += float32(d * am)
		}
		x = xNext
	}
}

// spread adds v to the cells [lo, hi) of a row. Cells outside the row are
// folded into its first or last cell.
func spread(row []float32, lo, hi int, v float32) {
	w := len(row) - 1
	if lo < 0 {
		if n := min(hi, 0) - lo; n > 0 {
			row[0] += v * float32(n)
		}
		lo = 0
	}
	if hi > w {
		if n := hi - max(lo, w); n > 0 {
			row[w] += v * float32(n)
		}
		hi = w
	}
	for i := lo; i < hi; i++ {
		row[i] += v
	}
}

func clamp(i, width int) int {
	if i < 0 {
		return 0
	}
	if i < width {
		return i
	}
	return width
}

// rows returns the range of rows which may carry coverage.
func (a *accumulator) rows() (int, int) {
	return max(a.yMin, 0), min(a.yMax, a.height)
}

// coverage writes the coverage values of row y, each in [0, 1], to dst,
// which must have length a.width.
func (a *accumulator) coverage(y int, dst []float32) {
	w := a.width
	row := a.cells[y*(w+1) : y*(w+1)+w]
	acc := float32(0)
	for i, v := range row {
		acc += v
		c := acc
		if c < 0 {
			c = -c
		}
		if c > 1 {
			c = 1
		}
		dst[i] = c
	}
}
