// Package pngdump rasterizes a host.Memory tree as an indented outline.
package pngdump

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-drift/loom/pkg/host"
)

const (
	margin = 8
	indent = "  "
)

var (
	background = color.RGBA{R: 0xfa, G: 0xfa, B: 0xf7, A: 0xff}
	ink        = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	textInk    = color.RGBA{R: 0x1d, G: 0x6b, B: 0x3a, A: 0xff}
)

// Line is one row of the outline.
type Line struct {
	Depth int
	Label string
	Text  bool
}

// Outline lists the nodes under m's root in document order.
func Outline(m *host.Memory) []Line {
	var lines []Line
	var visit func(n *host.Node, depth int)
	visit = func(n *host.Node, depth int) {
		lines = append(lines, Line{Depth: depth, Label: label(n), Text: n.Kind != host.KindElement})
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, c := range m.Root().Children {
		visit(c, 0)
	}
	return lines
}

func label(n *host.Node) string {
	switch n.Kind {
	case host.KindText:
		return fmt.Sprintf("%q", n.Text)
	case host.KindInline:
		return "inline " + n.Text
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<%s", n.Tag)
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, " %s=%q", name, fmt.Sprint(n.Attrs[name]))
	}
	sb.WriteString(">")
	return sb.String()
}

// Render draws the outline of m.
func Render(m *host.Memory) *image.RGBA {
	face := basicfont.Face7x13
	lines := Outline(m)

	width := 0
	for _, l := range lines {
		w := font.MeasureString(face, strings.Repeat(indent, l.Depth)+l.Label).Ceil()
		width = max(width, w)
	}
	lineHeight := face.Metrics().Height.Ceil()
	img := image.NewRGBA(image.Rect(0, 0, width+2*margin, max(1, len(lines))*lineHeight+2*margin))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	for i, l := range lines {
		d.Src = image.NewUniform(ink)
		if l.Text {
			d.Src = image.NewUniform(textInk)
		}
		d.Dot = fixed.P(margin, margin+i*lineHeight+ascent)
		d.DrawString(strings.Repeat(indent, l.Depth) + l.Label)
	}
	return img
}

// Write encodes the outline of m as PNG.
func Write(w io.Writer, m *host.Memory) error {
	return png.Encode(w, Render(m))
}
