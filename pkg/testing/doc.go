// Package testing provides a harness for testing components rendered by
// loom.
//
// # Quick Start
//
// Create a tester, render a tree, and make assertions against the host:
//
//	func TestCounter(t *testing.T) {
//	    tester := loomtest.NewRenderTesterWithT(t)
//	    tester.Render(core.Component(Counter, nil))
//
//	    tester.Dispatch(loomtest.ByTag("button"), "click", nil)
//	    tester.PumpAndSettle(0)
//
//	    if !tester.Find(loomtest.ByText("1")).Exists() {
//	        t.Error("expected count to be 1")
//	    }
//	}
//
// # Time Slicing
//
// By default every slice is unlimited. WithUnits makes each slice perform a
// fixed number of units, so partial passes can be observed:
//
//	tester := loomtest.NewRenderTester(loomtest.WithUnits(2))
//	tester.Renderer().Render(tree)
//	tester.Pump() // two units, nothing committed yet
//
// # Snapshot Testing
//
// Capture and compare host tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	LOOM_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import loomtest "github.com/go-drift/loom/pkg/testing"
package testing
