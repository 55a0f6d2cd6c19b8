package planapi

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

// The visibility page always asks for three obstacles.
const visibilityObstacles = 3

// Query builds the backend query string for mode. A seed is always sent so
// that repeated requests with the same structure parameters yield the same
// obstacle field.
func Query(mode document.Mode, params document.ViewParameters, width, height int) url.Values {
	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("num_obstacles", strconv.Itoa(params.NumObstacles))
	q.Set("max_vertices", strconv.Itoa(params.MaxVertices))
	q.Set("obstacle_size", formatFloat(params.ObstacleSize))
	q.Set("start_x", formatFloat(params.Start.X))
	q.Set("start_y", formatFloat(params.Start.Y))
	q.Set("goal_x", formatFloat(params.Goal.X))
	q.Set("goal_y", formatFloat(params.Goal.Y))
	q.Set("seed", strconv.FormatInt(params.Seed, 10))

	switch mode {
	case document.ModeQuadtree:
		q.Set("max_depth", strconv.Itoa(params.MaxDepth))
		q.Set("min_size", formatFloat(params.MinSize))
	case document.ModeVisibility:
		q.Set("num_obstacles", strconv.Itoa(visibilityObstacles))
	}
	return q
}

// ParseQuery reads view parameters from q using the backend's parameter
// names. Absent keys keep their value from base.
func ParseQuery(q url.Values, base document.ViewParameters) (document.ViewParameters, error) {
	p := base

	ints := []struct {
		key string
		dst *int
	}{
		{"num_obstacles", &p.NumObstacles},
		{"max_vertices", &p.MaxVertices},
		{"max_depth", &p.MaxDepth},
	}
	for _, f := range ints {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return base, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"obstacle_size", &p.ObstacleSize},
		{"min_size", &p.MinSize},
		{"start_x", &p.Start.X},
		{"start_y", &p.Start.Y},
		{"goal_x", &p.Goal.X},
		{"goal_y", &p.Goal.Y},
	}
	for _, f := range floats {
		if v := q.Get(f.key); v != "" {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return base, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = x
		}
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return base, fmt.Errorf("seed: %w", err)
		}
		p.Seed = seed
	}
	return p, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
