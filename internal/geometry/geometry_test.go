package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() Polygon {
	return Polygon{{100, 100}, {200, 100}, {200, 200}, {100, 200}}
}

func rotate(p Polygon, k int) Polygon {
	out := make(Polygon, 0, len(p))
	for i := range p {
		out = append(out, p[(i+k)%len(p)])
	}
	return out
}

func TestContainsSquare(t *testing.T) {
	sq := square()

	assert.True(t, Contains(Point{X: 150, Y: 150}, sq))
	assert.True(t, Contains(Point{X: 101, Y: 199}, sq))

	assert.False(t, Contains(Point{X: 10, Y: 10}, sq))
	assert.False(t, Contains(Point{X: 250, Y: 150}, sq))
	assert.False(t, Contains(Point{X: 150, Y: 50}, sq))
	assert.False(t, Contains(Point{X: 150, Y: 250}, sq))
}

func TestContainsCentroidOfConvexPolygons(t *testing.T) {
	polygons := []Polygon{
		square(),
		{{300, 300}, {420, 320}, {380, 450}},
		{{50, 400}, {90, 380}, {140, 410}, {130, 470}, {70, 480}, {40, 440}},
		{{0, 0}, {600, 0}, {600, 600}, {0, 600}},
	}

	for _, p := range polygons {
		assert.True(t, Contains(Centroid(p), p), "centroid of %v", p)
	}
}

func TestContainsRotationInvariant(t *testing.T) {
	poly := Polygon{{50, 400}, {90, 380}, {140, 410}, {130, 470}, {70, 480}, {40, 440}}
	probes := []Point{
		{X: 90, Y: 430}, {X: 10, Y: 10}, {X: 139, Y: 412}, {X: 45, Y: 441},
		{X: 90, Y: 380}, {X: 130, Y: 470}, {X: 200, Y: 440},
	}

	for _, probe := range probes {
		want := Contains(probe, poly)
		for k := 1; k < len(poly); k++ {
			assert.Equal(t, want, Contains(probe, rotate(poly, k)), "probe %v rotation %d", probe, k)
		}
	}
}

func TestContainsHorizontalEdgeNeverCrosses(t *testing.T) {
	// The ray from (50,100) runs exactly along the bottom edge of the square.
	sq := square()
	assert.False(t, Contains(Point{X: 50, Y: 100}, sq))

	// A flat, zero-area polygon must not produce a crossing.
	flat := Polygon{{0, 100}, {100, 100}, {200, 100}}
	assert.False(t, Contains(Point{X: 50, Y: 100}, flat))
	assert.False(t, Contains(Point{X: 50, Y: 99}, flat))
}

func TestContainsConcave(t *testing.T) {
	// U shape opening upwards.
	u := Polygon{{0, 0}, {30, 0}, {30, 30}, {20, 30}, {20, 10}, {10, 10}, {10, 30}, {0, 30}}

	assert.True(t, Contains(Point{X: 5, Y: 20}, u))
	assert.True(t, Contains(Point{X: 25, Y: 20}, u))
	assert.True(t, Contains(Point{X: 15, Y: 5}, u))
	assert.False(t, Contains(Point{X: 15, Y: 20}, u))
}

func TestContainsDegeneratePolygons(t *testing.T) {
	assert.False(t, Contains(Point{X: 1, Y: 1}, nil))
	assert.False(t, Contains(Point{X: 1, Y: 1}, Polygon{{0, 0}}))
	assert.False(t, Contains(Point{X: 1, Y: 1}, Polygon{{0, 0}, {5, 5}}))
}

func TestContainsExplicitlyClosedRing(t *testing.T) {
	closed := append(square(), orb.Point{100, 100})
	assert.True(t, Contains(Point{X: 150, Y: 150}, closed))
	assert.False(t, Contains(Point{X: 50, Y: 150}, closed))
}

func TestContainsAny(t *testing.T) {
	obstacles := []Polygon{
		square(),
		{{300, 300}, {420, 320}, {380, 450}},
	}

	assert.True(t, ContainsAny(Point{X: 150, Y: 150}, obstacles))
	assert.True(t, ContainsAny(Point{X: 370, Y: 350}, obstacles))
	assert.False(t, ContainsAny(Point{X: 10, Y: 10}, obstacles))
	assert.False(t, ContainsAny(Point{X: 10, Y: 10}, nil))
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Point{X: 150, Y: 150}, Centroid(square()))
	assert.Equal(t, Point{}, Centroid(nil))
}

func TestShorten(t *testing.T) {
	a, b, ok := Shorten(Point{X: 0, Y: 0}, Point{X: 100, Y: 0}, 15)
	require.True(t, ok)
	assert.InDelta(t, 15, a.X, 1e-9)
	assert.InDelta(t, 85, b.X, 1e-9)
	assert.InDelta(t, 0, a.Y, 1e-9)

	_, _, ok = Shorten(Point{X: 5, Y: 5}, Point{X: 5, Y: 5}, 15)
	assert.False(t, ok)
}

func TestObstacleIndexAgreesWithLinearScan(t *testing.T) {
	obstacles := []Polygon{
		square(),
		{{300, 300}, {420, 320}, {380, 450}},
		{{50, 400}, {90, 380}, {140, 410}, {130, 470}, {70, 480}, {40, 440}},
		{{0, 0}, {10, 0}},
		{{500, 100}, {560, 100}, {560, 100}},
	}
	ix := NewObstacleIndex(obstacles)
	assert.Equal(t, 4, ix.Len())

	for x := 0.0; x <= 600; x += 17 {
		for y := 0.0; y <= 600; y += 13 {
			p := Point{X: x, Y: y}
			assert.Equal(t, ContainsAny(p, obstacles), ix.ContainsAny(p), "point %v", p)
		}
	}
}

func TestObstacleIndexEmpty(t *testing.T) {
	var nilIndex *ObstacleIndex
	assert.False(t, nilIndex.ContainsAny(Point{X: 1, Y: 1}))
	assert.False(t, NewObstacleIndex(nil).ContainsAny(Point{X: 1, Y: 1}))
}
