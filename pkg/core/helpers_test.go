package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	loomerrors "github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/host"
	"github.com/go-drift/loom/pkg/idle"
)

type harness struct {
	r     *Renderer
	mem   *host.Memory
	sched *idle.Manual
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := host.NewMemory()
	sched := idle.NewManual()
	r, err := NewRenderer(mem, mem.Root(), sched, Options{})
	require.NoError(t, err)
	return &harness{r: r, mem: mem, sched: sched}
}

// render renders children and runs every slice with an unlimited deadline.
func (h *harness) render(children ...any) {
	h.r.Render(children...)
	h.settle()
}

func (h *harness) settle() {
	h.sched.RunUntilIdle(func() idle.Deadline { return idle.Unlimited{} })
}

// find returns the first host node with tag.
func (h *harness) find(tag string) *host.Node {
	var found *host.Node
	h.mem.Root().Walk(func(n *host.Node) bool {
		if n.Kind == host.KindElement && n.Tag == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

func (h *harness) ops(op string) int {
	n := 0
	for _, c := range h.mem.Journal() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func li(key string) *Element {
	return Tag("li", []Attr{A("id", key)}, strings.ToUpper(key)).WithKey(key)
}

func list(keys ...string) *Element {
	items := make([]*Element, len(keys))
	for i, k := range keys {
		items[i] = li(k)
	}
	return Tag("ul", nil, items)
}

// recordingHandler captures everything sent to the errors package.
type recordingHandler struct {
	errs     []error
	builds   []*loomerrors.BuildError
	warnings []*loomerrors.Warning
}

func (h *recordingHandler) HandleError(err *loomerrors.LoomError)       { h.errs = append(h.errs, err) }
func (h *recordingHandler) HandlePanic(err *loomerrors.PanicError)      { h.errs = append(h.errs, err) }
func (h *recordingHandler) HandleBuildError(err *loomerrors.BuildError) { h.builds = append(h.builds, err) }
func (h *recordingHandler) HandleWarning(w *loomerrors.Warning)         { h.warnings = append(h.warnings, w) }

func captureErrors(t *testing.T) *recordingHandler {
	t.Helper()
	h := &recordingHandler{}
	loomerrors.SetHandler(h)
	t.Cleanup(func() { loomerrors.SetHandler(nil) })
	return h
}
