package geometry

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

// minExtent keeps degenerate (flat) obstacle boxes valid for the R-tree.
const minExtent = 1e-9

type obstacleEntry struct {
	polygon Polygon
	bbox    rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// ObstacleIndex answers containment queries over a fixed obstacle set.
// Candidates come from an R-tree over obstacle bounding boxes and are then
// checked with Contains, so results always match ContainsAny.
type ObstacleIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewObstacleIndex builds an index over polygons. Polygons with fewer than
// three vertices are skipped since they cannot contain a point.
func NewObstacleIndex(polygons []Polygon) *ObstacleIndex {
	tree := rtreego.NewTree(2, 4, 16)
	size := 0

	for _, polygon := range polygons {
		if len(polygon) < 3 {
			continue
		}
		bbox, err := boundingRect(polygon)
		if err != nil {
			continue
		}
		tree.Insert(&obstacleEntry{polygon: polygon, bbox: bbox})
		size++
	}

	return &ObstacleIndex{tree: tree, size: size}
}

// Len returns the number of indexed obstacles.
func (ix *ObstacleIndex) Len() int {
	if ix == nil {
		return 0
	}
	return ix.size
}

// ContainsAny reports whether point lies inside any indexed obstacle.
func (ix *ObstacleIndex) ContainsAny(point Point) bool {
	if ix.Len() == 0 {
		return false
	}

	query := rtreego.Point{point.X, point.Y}.ToRect(minExtent)
	for _, item := range ix.tree.SearchIntersect(query) {
		entry := item.(*obstacleEntry)
		if Contains(point, entry.polygon) {
			return true
		}
	}
	return false
}

func boundingRect(polygon Polygon) (rtreego.Rect, error) {
	b := polygon.Bound()
	return rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{
			math.Max(b.Max[0]-b.Min[0], minExtent),
			math.Max(b.Max[1]-b.Min[1], minExtent),
		},
	)
}
