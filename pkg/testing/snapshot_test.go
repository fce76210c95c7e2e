package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/loom/pkg/core"
)

type fakeT struct {
	fatals []string
	errors []string
}

func (f *fakeT) Helper()                        {}
func (f *fakeT) Name() string                   { return "TestFake" }
func (f *fakeT) Fatalf(format string, a ...any) { f.fatals = append(f.fatals, fmt.Sprintf(format, a...)) }
func (f *fakeT) Errorf(format string, a ...any) { f.errors = append(f.errors, fmt.Sprintf(format, a...)) }

func renderList(t *testing.T, keys ...string) *RenderTester {
	t.Helper()
	tester := NewRenderTesterWithT(t)
	items := make([]*core.Element, len(keys))
	for i, k := range keys {
		items[i] = core.Tag("li", []core.Attr{core.A("id", k), core.On("click", func(any) {})}, k).WithKey(k)
	}
	require.NoError(t, tester.Render(core.Tag("ul", nil, items)))
	return tester
}

func TestSnapshotMatchesGoldenFile(t *testing.T) {
	tester := renderList(t, "a")

	tester.CaptureSnapshot().MatchesFile(t, filepath.Join("testdata", "list.snapshot.json"))
}

func TestSnapshotMismatchReportsDiff(t *testing.T) {
	tester := renderList(t, "b")
	ft := &fakeT{}

	tester.CaptureSnapshot().MatchesFile(ft, filepath.Join("testdata", "list.snapshot.json"))

	require.Len(t, ft.errors, 1)
	assert.Contains(t, ft.errors[0], "snapshot mismatch")
	assert.Contains(t, ft.errors[0], `+            "id": "b"`)
}

func TestSnapshotMissingFile(t *testing.T) {
	ft := &fakeT{}
	Capture(renderList(t, "a").Host()).MatchesFile(ft, filepath.Join(t.TempDir(), "none.json"))

	require.Len(t, ft.fatals, 1)
	assert.Contains(t, ft.fatals[0], "LOOM_UPDATE_SNAPSHOTS=1")
}

func TestSnapshotUpdateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snap.json")
	snap := renderList(t, "a", "b").CaptureSnapshot()

	require.NoError(t, snap.UpdateFile(path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	ft := &fakeT{}
	snap.MatchesFile(ft, path)
	assert.Empty(t, ft.errors)
	assert.Empty(t, ft.fatals)
}

func TestSnapshotDigest(t *testing.T) {
	a := renderList(t, "a", "b").CaptureSnapshot()
	b := renderList(t, "a", "b").CaptureSnapshot()
	c := renderList(t, "b", "a").CaptureSnapshot()

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Len(t, a.DigestString(), 16)
	assert.Empty(t, a.Diff(b))
	assert.NotEmpty(t, a.Diff(c))
}

func TestSnapshotWithJournal(t *testing.T) {
	tester := renderList(t, "a")
	tester.Host().ResetJournal()
	items := []*core.Element{
		core.Tag("li", []core.Attr{core.A("id", "a")}, "a").WithKey("a"),
	}
	require.NoError(t, tester.Render(core.Tag("ul", nil, items)))

	snap := tester.CaptureSnapshot().WithJournal(tester.Host())
	assert.Equal(t, []string{"unbind #4 click"}, snap.Journal)
	assert.NotEqual(t, tester.CaptureSnapshot().Digest(), snap.Digest())
}
