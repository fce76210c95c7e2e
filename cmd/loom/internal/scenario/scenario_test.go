package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/loom/pkg/core"
	loomerrors "github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/host"
)

const doc = `
frames:
  - name: initial
    tree:
      - tag: ul
        children:
          - {tag: li, key: a, attrs: {id: a, class: item}, children: [A]}
          - {tag: li, key: b, children: [B]}
      - inline: "<hr>"
  - tree:
      - tag: ul
        children:
          - {tag: li, key: b, children: [B]}
          - {tag: li, key: a, attrs: {id: a, class: item}, children: [A]}
      - key: group
        children: [x, {text: "y"}]
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, s.Frames, 2)
	assert.Equal(t, "initial", s.Frames[0].Name)
	assert.Equal(t, "frame 2", s.Frames[1].Name)

	li := s.Frames[0].Tree[0].Children[0].Element()
	assert.Equal(t, "li#a", li.String())
	require.Len(t, li.Props.Attrs(), 2)
	assert.Equal(t, "class", li.Props.Attrs()[0].Name)

	group := s.Frames[1].Tree[1].Element()
	assert.Equal(t, core.KindFragment, group.Kind)
	assert.Equal(t, "group", group.Key)
}

func TestFramesRender(t *testing.T) {
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	mem := host.NewMemory()
	r, err := core.NewRenderer(mem, mem.Root(), nil, core.Options{})
	require.NoError(t, err)

	r.Render(s.Frames[0].Elements()...)
	r.Flush()
	assert.Equal(t, `<ul><li class="item" id="a">A</li><li>B</li></ul><hr>`, mem.String())

	r.Render(s.Frames[1].Elements()...)
	r.Flush()
	assert.Equal(t, `<ul><li>B</li><li class="item" id="a">A</li></ul>xy`, mem.String())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("frames: []\n"))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse([]byte("frames:\n  - tree:\n      - {tag: p, text: x}\n"))
	assert.ErrorContains(t, err, "only one of")

	_, err = Parse([]byte("frames: {"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Frames, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var loomErr *loomerrors.LoomError
	require.ErrorAs(t, err, &loomErr)
	assert.Equal(t, loomerrors.KindConfig, loomErr.Kind)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("frames: []\n"), 0o644))
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.ErrorContains(t, err, "scenario.Load [config]")
}
