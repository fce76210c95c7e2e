package pngdump

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/loom/pkg/host"
)

func sample() *host.Memory {
	m := host.NewMemory()
	ul := m.CreateElement("ul")
	m.SetAttribute(ul, "class", "list")
	li := m.CreateElement("li")
	m.InsertBefore(li, m.CreateText("A"), nil)
	m.InsertBefore(ul, li, nil)
	m.InsertBefore(m.Root(), ul, nil)
	m.InsertBefore(m.Root(), m.SetInline(nil, "<hr>"), nil)
	return m
}

func TestOutline(t *testing.T) {
	assert.Equal(t, []Line{
		{Depth: 0, Label: `<ul class="list">`},
		{Depth: 1, Label: "<li>"},
		{Depth: 2, Label: `"A"`, Text: true},
		{Depth: 0, Label: "inline <hr>", Text: true},
	}, Outline(sample()))
}

func TestWriteEncodesPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 4*13+2*margin, b.Dy())
	assert.Greater(t, b.Dx(), 2*margin)
}

func TestRenderEmptyTree(t *testing.T) {
	img := Render(host.NewMemory())
	assert.Equal(t, 2*margin, img.Bounds().Dx())
	assert.Equal(t, 13+2*margin, img.Bounds().Dy())
}
