package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/host"
	"github.com/go-drift/loom/pkg/idle"
)

const (
	widthKey      = "width"
	depthKey      = "depth"
	iterationsKey = "iterations"
	seedKey       = "seed"
)

func benchCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure keyed list shuffles on the idle loop",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: widthKey, Usage: "Keyed items in the list (overrides bench.width)"},
			&cli.IntFlag{Name: depthKey, Usage: "Nesting depth below each item (overrides bench.depth)"},
			&cli.IntFlag{Name: iterationsKey, Usage: "Shuffles to render (overrides bench.iterations)"},
			&cli.DurationFlag{Name: budgetKey, Usage: "Idle slice length (overrides bench.budget)"},
			&cli.IntFlag{Name: seedKey, Usage: "Shuffle seed", Value: 1},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			res, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			b := res.Bench
			if cmd.IsSet(widthKey) {
				b.Width = int(cmd.Int(widthKey))
			}
			if cmd.IsSet(depthKey) {
				b.Depth = int(cmd.Int(depthKey))
			}
			if cmd.IsSet(iterationsKey) {
				b.Iterations = int(cmd.Int(iterationsKey))
			}
			if cmd.IsSet(budgetKey) {
				b.Budget = cmd.Duration(budgetKey)
			}
			if b.Width < 1 || b.Iterations < 1 || b.Depth < 0 {
				return fmt.Errorf("bench needs width >= 1, iterations >= 1 and depth >= 0")
			}
			report, err := runBench(ctx, benchParams{
				width:        b.Width,
				depth:        b.Depth,
				iterations:   b.Iterations,
				budget:       b.Budget,
				minRemaining: res.MinRemaining,
				seed:         uint64(cmd.Int(seedKey)),
			})
			if err != nil {
				return err
			}
			report.print(out)
			return nil
		},
	}
}

type benchParams struct {
	width        int
	depth        int
	iterations   int
	budget       time.Duration
	minRemaining time.Duration
	seed         uint64
}

type benchReport struct {
	params  benchParams
	passes  *tachymeter.Metrics
	slices  *tachymeter.Metrics
	units   int64
	calls   int64
	moves   int64
	creates int64
	elapsed time.Duration
}

func runBench(ctx context.Context, p benchParams) (*benchReport, error) {
	passes := tachymeter.New(&tachymeter.Config{Size: p.iterations})
	slices := tachymeter.New(&tachymeter.Config{Size: p.iterations * 4})

	loop := idle.NewLoop(p.budget, idle.WithSliceObserver(func(d time.Duration) { slices.AddTime(d) }))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(runCtx) }()
	defer func() {
		loop.Close()
		<-done
	}()

	mem := host.NewMemory()
	commits := make(chan *core.CommitRecord, 1)
	failures := make(chan error, 1)
	var r *core.Renderer
	var err error
	if doErr := loop.Do(ctx, func() {
		r, err = core.NewRenderer(mem, mem.Root(), loop, core.Options{
			MinRemaining: p.minRemaining,
			OnCommit:     func(rec *core.CommitRecord) { commits <- rec },
			OnError:      func(err error) { failures <- err },
		})
	}); doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, err
	}

	keys := make([]int, p.width)
	for i := range keys {
		keys[i] = i
	}
	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	report := &benchReport{params: p}

	pass := func(tree *core.Element) (*core.CommitRecord, time.Duration, error) {
		start := time.Now()
		if err := loop.Submit(func() { r.Render(tree) }); err != nil {
			return nil, 0, err
		}
		select {
		case rec := <-commits:
			return rec, time.Since(start), nil
		case err := <-failures:
			return nil, 0, err
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}

	if _, _, err := pass(benchTree(keys, p.depth)); err != nil {
		return nil, err
	}
	var calls int
	if err := loop.Do(ctx, func() { mem.ResetJournal() }); err != nil {
		return nil, err
	}

	began := time.Now()
	for i := 0; i < p.iterations; i++ {
		rng.Shuffle(len(keys), func(a, b int) { keys[a], keys[b] = keys[b], keys[a] })
		rec, d, err := pass(benchTree(keys, p.depth))
		if err != nil {
			return nil, err
		}
		passes.AddTime(d)
		report.units += int64(rec.Stats.Units)
		report.moves += int64(rec.Stats.Moves)
		report.creates += int64(rec.Stats.Inserts)
	}
	report.elapsed = time.Since(began)

	if err := loop.Do(ctx, func() {
		calls = mem.Calls()
		r.Unmount()
	}); err != nil {
		return nil, err
	}
	report.calls = int64(calls)
	report.passes = passes.Calc()
	report.slices = slices.Calc()
	return report, nil
}

// benchTree builds a list whose items, keyed by keys, each hold a chain of
// depth nested spans ending in a text node.
func benchTree(keys []int, depth int) *core.Element {
	items := make([]any, len(keys))
	for i, k := range keys {
		label := strconv.Itoa(k)
		var leaf any = label
		for d := 0; d < depth; d++ {
			leaf = core.Tag("span", nil, leaf)
		}
		items[i] = core.Tag("li", []core.Attr{core.A("id", "item-"+label)}, leaf).WithKey(k)
	}
	return core.Tag("ul", nil, items...)
}

func (r *benchReport) print(out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("keyed shuffle: %d items, depth %d, %d passes, budget %v",
		r.params.width, r.params.depth, r.params.iterations, r.params.budget))
	t.AppendHeader(table.Row{"Metric", "Count", "Avg", "Min", "P50", "P75", "P99", "Max"})
	t.AppendRows([]table.Row{
		metricRow("pass", r.passes),
		metricRow("slice", r.slices),
	})
	t.Render()

	s := table.NewWriter()
	s.SetOutputMirror(out)
	s.AppendHeader(table.Row{"Total", "Value"})
	s.AppendRows([]table.Row{
		{"units", humanize.Comma(r.units)},
		{"moves", humanize.Comma(r.moves)},
		{"inserts", humanize.Comma(r.creates)},
		{"host calls", humanize.Comma(r.calls)},
		{"throughput", humanize.SIWithDigits(float64(r.units)/r.elapsed.Seconds(), 1, "units/s")},
	})
	s.Render()
}

func metricRow(name string, m *tachymeter.Metrics) table.Row {
	return table.Row{
		name,
		humanize.Comma(int64(m.Count)),
		m.Time.Avg,
		m.Time.Min,
		m.Time.P50,
		m.Time.P75,
		m.Time.P99,
		m.Time.Max,
	}
}
