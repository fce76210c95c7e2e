package host

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// NodeKind identifies the kind of a Memory node.
type NodeKind int

const (
	// KindRoot is the container the reconciler renders into.
	KindRoot NodeKind = iota
	// KindElement is a tagged node.
	KindElement
	// KindText is a text node.
	KindText
	// KindInline is a node holding raw markup.
	KindInline
)

// Node is a node in a Memory tree.
type Node struct {
	ID        int
	Kind      NodeKind
	Tag       string
	Text      string
	Attrs     map[string]any
	Listeners map[string]Listener
	Parent    *Node
	Children  []*Node
}

// Call is one recorded adapter invocation.
type Call struct {
	Op   string
	Node int
	Arg  string
}

func (c Call) String() string {
	if c.Arg == "" {
		return fmt.Sprintf("%s #%d", c.Op, c.Node)
	}
	return fmt.Sprintf("%s #%d %s", c.Op, c.Node, c.Arg)
}

// Memory is an Adapter backed by plain Go structs. It journals every
// mutating call so tests can count host work.
type Memory struct {
	root    *Node
	nextID  int
	journal []Call
}

var _ Adapter = (*Memory)(nil)

// NewMemory returns an empty tree with a root container.
func NewMemory() *Memory {
	m := &Memory{}
	m.root = m.newNode(KindRoot)
	m.root.Tag = "root"
	return m
}

func (m *Memory) newNode(kind NodeKind) *Node {
	m.nextID++
	return &Node{ID: m.nextID, Kind: kind}
}

func (m *Memory) record(op string, n *Node, arg string) {
	id := 0
	if n != nil {
		id = n.ID
	}
	m.journal = append(m.journal, Call{Op: op, Node: id, Arg: arg})
}

// Root returns the container node.
func (m *Memory) Root() *Node { return m.root }

// Journal returns the calls recorded since the last Reset.
func (m *Memory) Journal() []Call { return slices.Clone(m.journal) }

// Calls returns the number of calls recorded since the last Reset.
func (m *Memory) Calls() int { return len(m.journal) }

// ResetJournal clears the call journal.
func (m *Memory) ResetJournal() { m.journal = nil }

func node(h Handle) *Node {
	if h == nil {
		return nil
	}
	n, ok := h.(*Node)
	if !ok {
		panic(fmt.Sprintf("host: foreign handle %T", h))
	}
	return n
}

// CreateElement implements Adapter.
func (m *Memory) CreateElement(tag string) Handle {
	n := m.newNode(KindElement)
	n.Tag = tag
	m.record("create", n, tag)
	return n
}

// CreateText implements Adapter.
func (m *Memory) CreateText(value string) Handle {
	n := m.newNode(KindText)
	n.Text = value
	m.record("text", n, value)
	return n
}

// SetAttribute implements Adapter.
func (m *Memory) SetAttribute(h Handle, name string, value any) {
	n := node(h)
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[name] = value
	m.record("set", n, fmt.Sprintf("%s=%v", name, value))
}

// RemoveAttribute implements Adapter.
func (m *Memory) RemoveAttribute(h Handle, name string) {
	n := node(h)
	delete(n.Attrs, name)
	m.record("unset", n, name)
}

// BindListener implements Adapter.
func (m *Memory) BindListener(h Handle, event string, fn Listener) {
	n := node(h)
	if n.Listeners == nil {
		n.Listeners = make(map[string]Listener)
	}
	n.Listeners[event] = fn
	m.record("bind", n, event)
}

// UnbindListener implements Adapter.
func (m *Memory) UnbindListener(h Handle, event string) {
	n := node(h)
	delete(n.Listeners, event)
	m.record("unbind", n, event)
}

// InsertBefore implements Adapter.
func (m *Memory) InsertBefore(parent, h, before Handle) {
	p, n, b := node(parent), node(h), node(before)
	if n.Parent != nil {
		n.Parent.detach(n)
	}
	idx := len(p.Children)
	if b != nil {
		if i := slices.Index(p.Children, b); i >= 0 {
			idx = i
		}
	}
	p.Children = slices.Insert(p.Children, idx, n)
	n.Parent = p
	arg := "end"
	if b != nil {
		arg = fmt.Sprintf("before #%d", b.ID)
	}
	m.record("insert", n, arg)
}

// RemoveChild implements Adapter.
func (m *Memory) RemoveChild(parent, h Handle) {
	p, n := node(parent), node(h)
	p.detach(n)
	m.record("remove", n, "")
}

func (n *Node) detach(child *Node) {
	if i := slices.Index(n.Children, child); i >= 0 {
		n.Children = slices.Delete(n.Children, i, i+1)
	}
	child.Parent = nil
}

// FirstChild implements Adapter.
func (m *Memory) FirstChild(parent Handle) Handle {
	p := node(parent)
	if len(p.Children) == 0 {
		return nil
	}
	return p.Children[0]
}

// NextSibling implements Adapter.
func (m *Memory) NextSibling(h Handle) Handle {
	n := node(h)
	if n.Parent == nil {
		return nil
	}
	siblings := n.Parent.Children
	i := slices.Index(siblings, n)
	if i < 0 || i+1 >= len(siblings) {
		return nil
	}
	return siblings[i+1]
}

// SetText implements Adapter.
func (m *Memory) SetText(h Handle, value string) {
	n := node(h)
	n.Text = value
	m.record("content", n, value)
}

// SetInline implements Adapter. Markup is stored verbatim; the same node
// is reused when one is given.
func (m *Memory) SetInline(h Handle, markup string) Handle {
	n := node(h)
	if n == nil {
		n = m.newNode(KindInline)
	}
	n.Text = markup
	m.record("inline", n, markup)
	return n
}

// Dispatch invokes the listener bound for event on n. It reports whether
// a listener was bound.
func (m *Memory) Dispatch(n *Node, event string, payload any) bool {
	fn, ok := n.Listeners[event]
	if !ok || fn == nil {
		return false
	}
	fn(payload)
	return true
}

// String serializes the children of the root as markup.
func (m *Memory) String() string {
	var sb strings.Builder
	for _, c := range m.root.Children {
		c.write(&sb)
	}
	return sb.String()
}

// String serializes n and its descendants as markup.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	switch n.Kind {
	case KindText, KindInline:
		sb.WriteString(n.Text)
		return
	}
	sb.WriteString("<")
	sb.WriteString(n.Tag)
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sb, " %s=%q", name, fmt.Sprint(n.Attrs[name]))
	}
	sb.WriteString(">")
	for _, c := range n.Children {
		c.write(sb)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteString(">")
}

// Walk visits n and its descendants in document order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}
