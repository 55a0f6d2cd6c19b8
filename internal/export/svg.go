package export

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/planviz/planviz/viewer-go/internal/engine"
)

// EncodeSVG writes one view's draw commands as a standalone SVG document of
// the given size. Clear commands are ignored; the document starts blank.
func EncodeSVG(w io.Writer, width, height float64, cmds []engine.DrawCommand) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(width), num(height), num(width), num(height))
	for _, c := range cmds {
		switch c.Op {
		case engine.OpPath:
			if err := writePath(bw, c); err != nil {
				return err
			}
		case engine.OpText:
			writeText(bw, c)
		}
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writePath(w *bufio.Writer, c engine.DrawCommand) error {
	d, err := pathData(c.Path)
	if err != nil {
		return fmt.Errorf("%s path: %w", c.Layer, err)
	}
	fill := c.Fill
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(w, `<path d="%s" fill="%s"`, d, attr(fill))
	if c.Stroke != "" {
		fmt.Fprintf(w, ` stroke="%s" stroke-width="%s"`, attr(c.Stroke), num(c.StrokeWidth))
	}
	if c.Opacity > 0 && c.Opacity < 1 {
		fmt.Fprintf(w, ` opacity="%s"`, num(c.Opacity))
	}
	if c.ObjectID != "" {
		fmt.Fprintf(w, ` id="%s"`, attr(c.ObjectID))
	}
	w.WriteString("/>\n")
	return nil
}

func writeText(w *bufio.Writer, c engine.DrawCommand) {
	anchor := "start"
	if c.Align == "middle" {
		anchor = "middle"
	}
	fmt.Fprintf(w, `<text x="%s" y="%s" font-size="%s" fill="%s" text-anchor="%s" dominant-baseline="middle">`,
		num(c.X), num(c.Y), num(c.FontSize), attr(c.Fill), anchor)
	xml.EscapeText(w, []byte(c.Text))
	w.WriteString("</text>\n")
}

// pathData converts path commands to SVG path data. A full circle
// ["A", cx, cy, r] becomes two half arcs.
func pathData(cmds []engine.PathCommand) (string, error) {
	var sb strings.Builder
	for _, pc := range cmds {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		args := make([]float64, 0, len(pc)-1)
		for _, a := range pc[1:] {
			f, ok := a.(float64)
			if !ok {
				return "", fmt.Errorf("non-numeric argument %v in %q", a, op)
			}
			args = append(args, f)
		}

		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case op == "M" && len(args) == 2, op == "L" && len(args) == 2:
			fmt.Fprintf(&sb, "%s%s %s", op, num(args[0]), num(args[1]))
		case op == "Z":
			sb.WriteString("Z")
		case op == "A" && len(args) == 3:
			cx, cy, r := args[0], args[1], args[2]
			fmt.Fprintf(&sb, "M%s %s A%s %s 0 1 0 %s %s A%s %s 0 1 0 %s %s Z",
				num(cx-r), num(cy), num(r), num(r), num(cx+r), num(cy),
				num(r), num(r), num(cx-r), num(cy))
		default:
			return "", fmt.Errorf("unsupported path command %v", []interface{}(pc))
		}
	}
	return sb.String(), nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func attr(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
