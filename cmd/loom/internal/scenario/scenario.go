// Package scenario decodes the yaml documents replayed by loom render.
//
// A scenario is a list of frames; each frame is a list of nodes rendered as
// the root's children. A node is a bare string (text) or a mapping:
//
//	frames:
//	  - name: initial
//	    tree:
//	      - tag: ul
//	        children:
//	          - {tag: li, key: a, attrs: {id: a}, children: [A]}
//	          - {tag: li, key: b, children: [B]}
//	      - inline: "<hr>"
//	      - key: group
//	        children: [x, y]
//
// A mapping without tag, text or inline is a fragment.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/loom/pkg/core"
	loomerrors "github.com/go-drift/loom/pkg/errors"
)

// ErrEmpty is returned for a scenario with no frames.
var ErrEmpty = errors.New("scenario has no frames")

// Scenario is a sequence of frames rendered one after another.
type Scenario struct {
	Frames []Frame `yaml:"frames"`
}

// Frame is one call to Render.
type Frame struct {
	Name string `yaml:"name,omitempty"`
	Tree []Node `yaml:"tree"`
}

// Node is one element of a frame.
type Node struct {
	Tag      string         `yaml:"tag,omitempty"`
	Text     *string        `yaml:"text,omitempty"`
	Inline   *string        `yaml:"inline,omitempty"`
	Key      any            `yaml:"key,omitempty"`
	Attrs    map[string]any `yaml:"attrs,omitempty"`
	Children []Node         `yaml:"children,omitempty"`
}

// UnmarshalYAML accepts a bare scalar as a text node.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s := value.Value
		*n = Node{Text: &s}
		return nil
	}
	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	if n.Text != nil && (n.Tag != "" || n.Inline != nil) {
		return fmt.Errorf("line %d: a node sets only one of tag, text and inline", value.Line)
	}
	return nil
}

// Load reads and decodes the scenario at path. Failures are returned as
// *errors.LoomError of kind KindConfig.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(fmt.Errorf("failed to read scenario: %w", err))
	}
	s, err := Parse(data)
	if err != nil {
		return nil, loadError(fmt.Errorf("%s: %w", path, err))
	}
	return s, nil
}

func loadError(err error) error {
	return &loomerrors.LoomError{Op: "scenario.Load", Kind: loomerrors.KindConfig, Err: err}
}

// Parse decodes a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if len(s.Frames) == 0 {
		return nil, ErrEmpty
	}
	for i := range s.Frames {
		if s.Frames[i].Name == "" {
			s.Frames[i].Name = fmt.Sprintf("frame %d", i+1)
		}
	}
	return &s, nil
}

// Elements converts the frame's tree into render arguments.
func (f Frame) Elements() []any {
	out := make([]any, len(f.Tree))
	for i, n := range f.Tree {
		out[i] = n.Element()
	}
	return out
}

// Element converts n into a core element. Attributes are applied in name
// order so the same document always yields the same props.
func (n Node) Element() *core.Element {
	var el *core.Element
	switch {
	case n.Text != nil:
		el = core.Text(*n.Text)
	case n.Inline != nil:
		el = core.Inline(*n.Inline)
	case n.Tag != "":
		el = core.Tag(n.Tag, n.attrs(), n.children()...)
	default:
		el = core.Fragment(n.children()...)
	}
	if n.Key != nil {
		el = el.WithKey(n.Key)
	}
	return el
}

func (n Node) attrs() []core.Attr {
	if len(n.Attrs) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]core.Attr, len(names))
	for i, name := range names {
		out[i] = core.A(name, n.Attrs[name])
	}
	return out
}

func (n Node) children() []any {
	out := make([]any, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.Element()
	}
	return out
}
