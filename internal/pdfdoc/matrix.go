package pdfdoc

import "math"

// Matrix is a PDF affine transform [a b c d e f] applied to row vectors.
type Matrix [6]float64

func identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Mult returns m followed by n.
func (m Matrix) Mult(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// rect is an axis-aligned rectangle in some coordinate space.
type rect struct {
	x0, y0, x1, y1 float64
}

func (r rect) width() float64  { return r.x1 - r.x0 }
func (r rect) height() float64 { return r.y1 - r.y0 }

func (r rect) empty() bool { return r.width() <= 0 || r.height() <= 0 }

func normRect(x0, y0, x1, y1 float64) rect {
	return rect{math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)}
}

func (r rect) intersect(o rect) rect {
	return rect{math.Max(r.x0, o.x0), math.Max(r.y0, o.y0), math.Min(r.x1, o.x1), math.Min(r.y1, o.y1)}
}

// transformRect returns the bounds of r's four corners under m.
func transformRect(m Matrix, r rect) rect {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = m.Apply(r.x0, r.y0)
	xs[1], ys[1] = m.Apply(r.x1, r.y0)
	xs[2], ys[2] = m.Apply(r.x0, r.y1)
	xs[3], ys[3] = m.Apply(r.x1, r.y1)
	out := rect{xs[0], ys[0], xs[0], ys[0]}
	for i := 1; i < 4; i++ {
		out.x0 = math.Min(out.x0, xs[i])
		out.y0 = math.Min(out.y0, ys[i])
		out.x1 = math.Max(out.x1, xs[i])
		out.y1 = math.Max(out.y1, ys[i])
	}
	return out
}

// displayMatrix maps user space of a page with visible box box and rotation
// rotate (0, 90, 180, 270) to top-left-origin display coordinates.
func displayMatrix(box rect, rotate int) Matrix {
	w, h := box.width(), box.height()
	flip := Matrix{1, 0, 0, -1, -box.x0, box.y1}
	switch rotate {
	case 90:
		return flip.Mult(Matrix{0, 1, -1, 0, h, 0})
	case 180:
		return flip.Mult(Matrix{-1, 0, 0, -1, w, h})
	case 270:
		return flip.Mult(Matrix{0, -1, 1, 0, 0, w})
	}
	return flip
}

// fitMatrix maps the display-space clip rectangle onto an output page of
// width x height in PDF user space, stretching each axis independently.
func fitMatrix(clip rect, width, height float64) Matrix {
	sx := width / clip.width()
	sy := height / clip.height()
	return Matrix{sx, 0, 0, -sy, -clip.x0 * sx, height + clip.y0*sy}
}
