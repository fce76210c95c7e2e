package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/go-drift/loom/pkg/host"
)

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the host tree and, optionally, the host call journal.
type Snapshot struct {
	Tree    []*SnapshotNode `json:"tree"`
	Journal []string        `json:"journal,omitempty"`
}

// SnapshotNode represents one host node in a snapshot.
type SnapshotNode struct {
	Kind      string            `json:"kind"`
	Tag       string            `json:"tag,omitempty"`
	Text      string            `json:"text,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Listeners []string          `json:"listeners,omitempty"`
	Children  []*SnapshotNode   `json:"children,omitempty"`
}

// Capture snapshots the children of m's root. Node identities are not
// recorded, so two hosts that look the same produce equal snapshots.
func Capture(m *host.Memory) *Snapshot {
	snap := &Snapshot{Tree: []*SnapshotNode{}}
	for _, c := range m.Root().Children {
		snap.Tree = append(snap.Tree, captureNode(c))
	}
	return snap
}

// CaptureSnapshot captures the current host tree.
func (t *RenderTester) CaptureSnapshot() *Snapshot {
	return Capture(t.host)
}

// WithJournal returns a copy of s that also records the host calls made
// since the journal was last reset.
func (s *Snapshot) WithJournal(m *host.Memory) *Snapshot {
	out := &Snapshot{Tree: s.Tree}
	for _, c := range m.Journal() {
		out.Journal = append(out.Journal, c.String())
	}
	return out
}

// Digest returns a stable 64-bit hash of the snapshot.
func (s *Snapshot) Digest() uint64 {
	data, err := marshalSnapshot(s)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

// DigestString returns Digest as 16 hex digits.
func (s *Snapshot) DigestString() string {
	return fmt.Sprintf("%016x", s.Digest())
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When LOOM_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv("LOOM_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: LOOM_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: LOOM_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a unified diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

func captureNode(n *host.Node) *SnapshotNode {
	out := &SnapshotNode{Tag: n.Tag, Text: n.Text}
	switch n.Kind {
	case host.KindText:
		out.Kind = "text"
	case host.KindInline:
		out.Kind = "inline"
	default:
		out.Kind = "element"
	}
	if len(n.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = fmt.Sprint(v)
		}
	}
	for event := range n.Listeners {
		out.Listeners = append(out.Listeners, event)
	}
	sort.Strings(out.Listeners)
	for _, c := range n.Children {
		out.Children = append(out.Children, captureNode(c))
	}
	return out
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	maxLen := max(len(expectedLines), len(actualLines))
	for i := 0; i < maxLen; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
