package main

import (
	"math"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/engine"
	"github.com/planviz/planviz/viewer-go/internal/geometry"
)

// Cell is one terminal character of a rasterized view.
type Cell struct {
	Ch    rune
	Color string
}

// Raster is a view's draw commands mapped onto a grid of terminal cells.
type Raster struct {
	W, H  int
	Cells []Cell
	m     engine.Matrix2D
	inv   engine.Matrix2D
}

func NewRaster(w, h int) *Raster {
	m := engine.Stretch(float64(w), float64(h))
	return &Raster{W: w, H: h, Cells: make([]Cell, w*h), m: m, inv: m.Invert()}
}

func (r *Raster) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= r.W || y >= r.H {
		return Cell{}
	}
	return r.Cells[y*r.W+x]
}

func (r *Raster) set(x, y int, ch rune, color string) {
	if x < 0 || y < 0 || x >= r.W || y >= r.H {
		return
	}
	r.Cells[y*r.W+x] = Cell{Ch: ch, Color: color}
}

// CellOf returns the cell containing the logical point p.
func (r *Raster) CellOf(p document.Point) (int, int) {
	x, y := r.m.TransformPoint(p.X, p.Y)
	return int(math.Floor(x)), int(math.Floor(y))
}

// Logical returns the logical point at the center of cell (x, y).
func (r *Raster) Logical(x, y int) document.Point {
	lx, ly := r.inv.TransformPoint(float64(x)+0.5, float64(y)+0.5)
	return document.Point{X: lx, Y: ly}
}

// Draw paints cmds in order. The grid layer is skipped; it would cover every
// other cell at terminal resolution.
func (r *Raster) Draw(cmds []engine.DrawCommand) {
	for _, c := range cmds {
		if c.Layer == engine.LayerGrid {
			continue
		}
		switch c.Op {
		case engine.OpClear:
			clear(r.Cells)
		case engine.OpPath:
			r.drawPath(c)
		case engine.OpText:
			r.drawText(c)
		}
	}
}

func layerRunes(l engine.Layer) (fill, stroke rune) {
	switch l {
	case engine.LayerObstacles:
		return '█', '█'
	case engine.LayerStructure:
		return '░', '·'
	case engine.LayerGraph:
		return 'o', '·'
	case engine.LayerPath:
		return '*', '*'
	case engine.LayerMarkers:
		return '●', '●'
	}
	return '▪', '·'
}

func (r *Raster) drawPath(c engine.DrawCommand) {
	fillRune, strokeRune := layerRunes(c.Layer)
	var sub []document.Point
	flush := func(closed bool) {
		if closed && c.Fill != "" && len(sub) >= 3 {
			r.fillPolygon(sub, fillRune, c.Fill)
		}
		if c.Stroke != "" {
			for i := 1; i < len(sub); i++ {
				r.line(sub[i-1], sub[i], strokeRune, c.Stroke)
			}
			if closed && len(sub) > 2 {
				r.line(sub[len(sub)-1], sub[0], strokeRune, c.Stroke)
			}
		}
		sub = sub[:0]
	}

	for _, pc := range c.Path {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		args := make([]float64, 0, 3)
		for _, a := range pc[1:] {
			if f, ok := a.(float64); ok {
				args = append(args, f)
			}
		}
		switch {
		case op == "M" && len(args) == 2:
			flush(false)
			sub = append(sub, document.Point{X: args[0], Y: args[1]})
		case op == "L" && len(args) == 2:
			sub = append(sub, document.Point{X: args[0], Y: args[1]})
		case op == "Z":
			flush(true)
		case op == "A" && len(args) == 3:
			color := c.Fill
			if color == "" {
				color = c.Stroke
			}
			r.disc(document.Point{X: args[0], Y: args[1]}, args[2], fillRune, color)
		}
	}
	flush(false)
}

// fillPolygon marks every cell whose center lies inside poly.
func (r *Raster) fillPolygon(poly []document.Point, ch rune, color string) {
	ring := make(document.Polygon, len(poly))
	for i, p := range poly {
		ring[i] = p.Orb()
	}
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			if geometry.Contains(r.Logical(x, y), ring) {
				r.set(x, y, ch, color)
			}
		}
	}
}

// disc marks the cells within radius of center, and at least the center cell.
func (r *Raster) disc(center document.Point, radius float64, ch rune, color string) {
	cx, cy := r.CellOf(center)
	r.set(cx, cy, ch, color)
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			if r.Logical(x, y).Distance(center) <= radius {
				r.set(x, y, ch, color)
			}
		}
	}
}

// line draws a Bresenham line between the cells of a and b.
func (r *Raster) line(a, b document.Point, ch rune, color string) {
	x0, y0 := r.CellOf(a)
	x1, y1 := r.CellOf(b)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.set(x0, y0, ch, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Raster) drawText(c engine.DrawCommand) {
	x, y := r.CellOf(document.Point{X: c.X, Y: c.Y})
	runes := []rune(c.Text)
	if c.Align == "middle" {
		x -= len(runes) / 2
	}
	for i, ch := range runes {
		r.set(x+i, y, ch, c.Fill)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
