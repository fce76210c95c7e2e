package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/loom/pkg/host"
)

// Finder locates nodes in the host tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(root *host.Node) []*host.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*host.Node
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *host.Node {
	if len(r.nodes) == 0 {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder found no nodes: %s", desc))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *host.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *host.Node {
	if index < 0 || index >= len(r.nodes) {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), desc))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*host.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Text returns the concatenated text content of the first match.
func (r FinderResult) Text() string {
	var sb strings.Builder
	r.First().Walk(func(n *host.Node) bool {
		if n.Kind == host.KindText {
			sb.WriteString(n.Text)
		}
		return true
	})
	return sb.String()
}

// --- Concrete finders ---

type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root *host.Node) []*host.Node {
	return collectMatches(root, func(n *host.Node) bool {
		return n.Kind == host.KindElement && n.Tag == f.tag
	})
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%q)", f.tag)
}

// ByTag returns a finder that matches element nodes with tag.
func ByTag(tag string) Finder {
	return &tagFinder{tag: tag}
}

type attrFinder struct {
	name  string
	value any
}

func (f *attrFinder) Evaluate(root *host.Node) []*host.Node {
	return collectMatches(root, func(n *host.Node) bool {
		v, ok := n.Attrs[f.name]
		return ok && fmt.Sprint(v) == fmt.Sprint(f.value)
	})
}

func (f *attrFinder) Description() string {
	return fmt.Sprintf("ByAttr(%s=%v)", f.name, f.value)
}

// ByAttr returns a finder that matches nodes whose attribute name is set to
// value, compared in formatted form.
func ByAttr(name string, value any) Finder {
	return &attrFinder{name: name, value: value}
}

type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root *host.Node) []*host.Node {
	return collectMatches(root, func(n *host.Node) bool {
		return n.Kind == host.KindText && n.Text == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches text nodes with exactly text.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root *host.Node) []*host.Node {
	return collectMatches(root, func(n *host.Node) bool {
		return n.Kind == host.KindText && strings.Contains(n.Text, f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches text nodes containing
// substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

type predicateFinder struct {
	fn func(*host.Node) bool
}

func (f *predicateFinder) Evaluate(root *host.Node) []*host.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return "ByPredicate(...)"
}

// ByPredicate returns a finder that matches nodes satisfying fn.
func ByPredicate(fn func(*host.Node) bool) Finder {
	return &predicateFinder{fn: fn}
}

// descendantFinder finds nodes matching 'matching' that are descendants
// of nodes matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *host.Node) []*host.Node {
	var results []*host.Node
	seen := make(map[*host.Node]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		// Search within each ancestor's subtree, skipping the ancestor itself.
		for _, child := range ancestor.Children {
			for _, match := range f.matching.Evaluate(child) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches nodes satisfying 'matching'
// that are descendants of nodes matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// collectMatches performs depth-first pre-order traversal, collecting
// nodes that satisfy the predicate.
func collectMatches(root *host.Node, predicate func(*host.Node) bool) []*host.Node {
	var results []*host.Node
	root.Walk(func(n *host.Node) bool {
		if predicate(n) {
			results = append(results, n)
		}
		return true
	})
	return results
}
