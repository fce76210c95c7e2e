// Package host defines the capability set the reconciler uses to mutate a
// real display tree, plus an in-memory implementation for tests and tools.
//
// The reconciler never inspects handles; it only passes them back to the
// adapter that produced them. Handles must be comparable.
package host

// Handle is an opaque reference to a node owned by an Adapter.
type Handle any

// Listener receives events dispatched by the host for a bound event name.
type Listener func(event any)

// Adapter creates, mutates and removes host nodes.
//
// All methods are called from the reconciler's single logical thread.
type Adapter interface {
	// CreateElement returns a detached node for the given host tag.
	CreateElement(tag string) Handle
	// CreateText returns a detached text node.
	CreateText(value string) Handle
	// SetAttribute sets or overwrites an attribute.
	SetAttribute(node Handle, name string, value any)
	// RemoveAttribute removes an attribute. Removing an absent attribute is a no-op.
	RemoveAttribute(node Handle, name string)
	// BindListener attaches fn for event, replacing any previous binding.
	BindListener(node Handle, event string, fn Listener)
	// UnbindListener detaches the listener for event.
	UnbindListener(node Handle, event string)
	// InsertBefore inserts node into parent before the before node, or at
	// the end when before is nil. An attached node is moved.
	InsertBefore(parent, node, before Handle)
	// RemoveChild detaches node from parent.
	RemoveChild(parent, node Handle)
	// FirstChild returns the first child of parent, or nil.
	FirstChild(parent Handle) Handle
	// NextSibling returns the node following node in its parent, or nil.
	NextSibling(node Handle) Handle
	// SetText replaces the content of a text node.
	SetText(node Handle, value string)
	// SetInline parses markup into a node. With a nil node it returns a new
	// detached node; otherwise the returned node takes node's place.
	SetInline(node Handle, markup string) Handle
}
