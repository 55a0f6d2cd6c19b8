package engine

import (
	"math"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

// Matrix2D maps logical canvas units to surface units. The six entries are
// the canvas setTransform arguments [a, b, c, d, e, f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix2D [6]float64

// Identity draws the canvas 1:1.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Multiply composes m after other.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// TransformPoint maps (x, y).
func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Apply maps a logical point through the matrix.
func (m Matrix2D) Apply(p document.Point) document.Point {
	x, y := m.TransformPoint(p.X, p.Y)
	return document.Point{X: x, Y: y}
}

func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert maps surface units back to logical units. A singular matrix
// inverts to Identity.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// ToSlice returns the setTransform arguments.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// IsIdentity reports whether m draws the canvas 1:1.
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}

// Viewport maps the logical canvas onto a surface of the given pixel size,
// keeping the aspect ratio and centering the canvas. Pointer positions are
// mapped back with Viewport(...).Invert().
func Viewport(surfaceWidth, surfaceHeight float64) Matrix2D {
	s := math.Min(surfaceWidth/document.CanvasWidth, surfaceHeight/document.CanvasHeight)
	if s <= 0 {
		return Identity()
	}
	tx := (surfaceWidth - document.CanvasWidth*s) / 2
	ty := (surfaceHeight - document.CanvasHeight*s) / 2
	return Translate(tx, ty).Multiply(Scale(s, s))
}

// Stretch maps the logical canvas onto a surface without preserving the
// aspect ratio. Terminal cells are not square, so the terminal viewer uses
// this instead of Viewport.
func Stretch(surfaceWidth, surfaceHeight float64) Matrix2D {
	if surfaceWidth <= 0 || surfaceHeight <= 0 {
		return Identity()
	}
	return Scale(surfaceWidth/document.CanvasWidth, surfaceHeight/document.CanvasHeight)
}
