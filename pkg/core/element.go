package core

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-drift/loom/pkg/host"
)

// Kind identifies what an Element or Fiber stands for.
type Kind int

const (
	// KindRoot is the container a Renderer renders into.
	KindRoot Kind = iota
	// KindText is a text node.
	KindText
	// KindFragment groups children without a host node of its own.
	KindFragment
	// KindInline is a node built by the host from raw markup.
	KindInline
	// KindHost is a tagged host node such as "div".
	KindHost
	// KindComponent is a user function that renders more elements.
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindText:
		return "text"
	case KindFragment:
		return "fragment"
	case KindInline:
		return "inline"
	case KindHost:
		return "host"
	case KindComponent:
		return "component"
	default:
		return "unknown"
	}
}

// hasHostNode reports whether fibers of this kind own a host node.
func (k Kind) hasHostNode() bool {
	switch k {
	case KindRoot, KindText, KindInline, KindHost:
		return true
	}
	return false
}

// ComponentFunc renders a component. It is the only place user render
// logic runs. Return nil to render nothing, or a Fragment for several
// children.
type ComponentFunc func(ctx *Context, props Props) *Element

// Element is an immutable description of one desired UI node. A fresh
// tree of elements is produced for every render pass and consumed once.
type Element struct {
	Kind Kind
	// Tag is the host tag for KindHost.
	Tag string
	// Fn is the render function for KindComponent.
	Fn ComponentFunc
	// Props holds attributes and the child list.
	Props Props
	// Key identifies the element among its siblings. Nil means unkeyed.
	// Keys must be comparable.
	Key any
}

const (
	textProp   = "value"
	inlineProp = "html"
)

// Tag returns a host element.
func Tag(tag string, attrs []Attr, children ...any) *Element {
	return &Element{
		Kind:  KindHost,
		Tag:   tag,
		Props: Props{attrs: attrs, Children: Normalize(children...)},
	}
}

// Text returns a text element.
func Text(value string) *Element {
	return &Element{
		Kind:  KindText,
		Props: Props{attrs: []Attr{A(textProp, value)}},
	}
}

// Inline returns an element whose host node is parsed from markup.
func Inline(markup string) *Element {
	return &Element{
		Kind:  KindInline,
		Props: Props{attrs: []Attr{A(inlineProp, markup)}},
	}
}

// Fragment groups children. Unkeyed fragments are flattened into their
// parent's child list by Normalize; keyed fragments keep their own fiber
// so the group moves as a unit.
func Fragment(children ...any) *Element {
	return &Element{
		Kind:  KindFragment,
		Props: Props{Children: Normalize(children...)},
	}
}

// Component returns an element rendered by fn.
func Component(fn ComponentFunc, attrs []Attr, children ...any) *Element {
	return &Element{
		Kind:  KindComponent,
		Fn:    fn,
		Props: Props{attrs: attrs, Children: Normalize(children...)},
	}
}

// WithKey returns a copy of e carrying key.
func (e *Element) WithKey(key any) *Element {
	c := *e
	c.Key = key
	return &c
}

func (e *Element) String() string {
	var sb strings.Builder
	sb.WriteString(describe(e.Kind, e.Tag, e.Fn))
	if e.Key != nil {
		fmt.Fprintf(&sb, "#%v", e.Key)
	}
	return sb.String()
}

func describe(kind Kind, tag string, fn ComponentFunc) string {
	switch kind {
	case KindHost:
		return tag
	case KindComponent:
		return funcName(fn)
	default:
		return kind.String()
	}
}

func funcName(fn ComponentFunc) string {
	if fn == nil {
		return "<nil>"
	}
	if f := runtime.FuncForPC(funcPointer(fn)); f != nil {
		return f.Name()
	}
	return "component"
}

func funcPointer(fn ComponentFunc) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

// sameType reports whether f can be updated in place from e.
func (f *Fiber) sameType(e *Element) bool {
	if f.Kind != e.Kind || f.Tag != e.Tag {
		return false
	}
	if f.Kind == KindComponent {
		return funcPointer(f.fn) == funcPointer(e.Fn)
	}
	return true
}

// elementsEqual reports whether two element lists describe the same tree.
func elementsEqual(a, b []*Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Kind != y.Kind || x.Tag != y.Tag || x.Key != y.Key {
			return false
		}
		if x.Kind == KindComponent && funcPointer(x.Fn) != funcPointer(y.Fn) {
			return false
		}
		if !x.Props.equal(y.Props) {
			return false
		}
	}
	return true
}

// Attr is one named property of an element.
type Attr struct {
	Name  string
	Value Value
}

// A returns a literal attribute.
func A(name string, value any) Attr {
	return Attr{Name: name, Value: Literal(value)}
}

// C returns an attribute whose value is computed once per commit.
func C(name string, fn func() any) Attr {
	return Attr{Name: name, Value: Computed(fn)}
}

// On returns a listener for event.
func On(event string, fn host.Listener) Attr {
	return Attr{Name: "on" + event, Value: Handler(fn)}
}

// Props is the ordered attribute list of an element plus its children.
type Props struct {
	attrs    []Attr
	Children []*Element
}

// NewProps returns props with the given attributes and children.
func NewProps(attrs []Attr, children ...any) Props {
	return Props{attrs: attrs, Children: Normalize(children...)}
}

// Attrs returns the attributes in declaration order.
func (p Props) Attrs() []Attr {
	return p.attrs
}

// Get returns the value of the named attribute.
func (p Props) Get(name string) (Value, bool) {
	for _, a := range p.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Value{}, false
}

// Literal returns the resolved value of the named attribute, or nil.
func (p Props) Literal(name string) any {
	v, ok := p.Get(name)
	if !ok {
		return nil
	}
	return v.Resolve()
}

// String returns the named attribute formatted as a string.
func (p Props) String(name string) string {
	v := p.Literal(name)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// clone copies the attribute slice so computed values can be cached on
// the copy without touching the element.
func (p Props) clone() Props {
	return Props{attrs: append([]Attr(nil), p.attrs...), Children: p.Children}
}

// resolve replaces computed values with their result.
func (p *Props) resolve() {
	for i, a := range p.attrs {
		if a.Value.kind == valueComputed {
			p.attrs[i].Value = Literal(a.Value.Resolve())
		}
	}
}

func (p Props) equal(o Props) bool {
	if len(p.attrs) != len(o.attrs) {
		return false
	}
	for i := range p.attrs {
		if p.attrs[i].Name != o.attrs[i].Name || !p.attrs[i].Value.equal(o.attrs[i].Value) {
			return false
		}
	}
	return elementsEqual(p.Children, o.Children)
}

type valueKind uint8

const (
	valueLiteral valueKind = iota
	valueComputed
	valueHandler
)

// Value is an attribute value: a literal, a computed value, or a listener.
type Value struct {
	kind    valueKind
	literal any
	compute func() any
	handler host.Listener
}

// Literal wraps a plain value.
func Literal(v any) Value {
	return Value{kind: valueLiteral, literal: v}
}

// Computed wraps a function evaluated when the value is committed.
func Computed(fn func() any) Value {
	return Value{kind: valueComputed, compute: fn}
}

// Handler wraps an event listener.
func Handler(fn host.Listener) Value {
	return Value{kind: valueHandler, handler: fn}
}

// IsHandler reports whether v is a listener.
func (v Value) IsHandler() bool { return v.kind == valueHandler }

// IsComputed reports whether v is still unevaluated.
func (v Value) IsComputed() bool { return v.kind == valueComputed }

// Listener returns the wrapped listener, or nil.
func (v Value) Listener() host.Listener { return v.handler }

// Resolve returns the literal, evaluating a computed value.
// Listeners resolve to nil.
func (v Value) Resolve() any {
	switch v.kind {
	case valueComputed:
		if v.compute == nil {
			return nil
		}
		return v.compute()
	case valueLiteral:
		return v.literal
	}
	return nil
}

// equal compares literals deeply. Computed values and listeners never
// compare equal since functions have no identity worth trusting.
func (v Value) equal(o Value) bool {
	if v.kind != valueLiteral || o.kind != valueLiteral {
		return false
	}
	return reflect.DeepEqual(v.literal, o.literal)
}

// hostValue maps a literal to what the host should see. Nil and false
// mean the attribute is absent; true is an empty attribute.
func hostValue(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case bool:
		if !x {
			return nil, false
		}
		return "", true
	}
	return v, true
}
