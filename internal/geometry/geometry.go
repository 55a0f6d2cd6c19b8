package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// degenerateSpan replaces a zero y-span in the crossing test.
const degenerateSpan = 1e-7

// Point is a planar coordinate in the shared 600x600 logical space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Polygon is an implicitly closed vertex ring. On the wire it is [[x,y],...].
type Polygon = orb.Ring

// Orb converts the point to an orb.Point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrb converts an orb.Point to a Point.
func FromOrb(p orb.Point) Point {
	return Point{X: p[0], Y: p[1]}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Add returns p + other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Contains reports whether point lies inside polygon using the even-odd rule:
// a horizontal ray towards +x crosses the boundary an odd number of times.
// Polygons with fewer than three vertices contain nothing.
func Contains(point Point, polygon Polygon) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := polygon[i][0], polygon[i][1]
		xj, yj := polygon[j][0], polygon[j][1]

		if (yi > point.Y) == (yj > point.Y) {
			continue
		}

		dy := yj - yi
		if dy == 0 {
			dy = degenerateSpan
		}
		if point.X < (xj-xi)*(point.Y-yi)/dy+xi {
			inside = !inside
		}
	}

	return inside
}

// ContainsAny reports whether point lies inside at least one polygon.
func ContainsAny(point Point, polygons []Polygon) bool {
	for _, polygon := range polygons {
		if Contains(point, polygon) {
			return true
		}
	}
	return false
}

// Centroid returns the arithmetic mean of the polygon's vertices.
// This is where face labels are placed, not the area centroid.
func Centroid(polygon Polygon) Point {
	if len(polygon) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, v := range polygon {
		sx += v[0]
		sy += v[1]
	}
	n := float64(len(polygon))
	return Point{X: sx / n, Y: sy / n}
}

// Shorten trims a segment so it starts radius after a and ends radius before b.
// ok is false for a zero-length segment.
func Shorten(a, b Point, radius float64) (Point, Point, bool) {
	length := a.Distance(b)
	if length == 0 {
		return a, b, false
	}
	ux := (b.X - a.X) / length
	uy := (b.Y - a.Y) / length
	return Point{X: a.X + ux*radius, Y: a.Y + uy*radius},
		Point{X: b.X - ux*radius, Y: b.Y - uy*radius},
		true
}
