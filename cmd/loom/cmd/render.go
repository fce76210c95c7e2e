package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/go-drift/loom/cmd/loom/internal/config"
	"github.com/go-drift/loom/cmd/loom/internal/pngdump"
	"github.com/go-drift/loom/cmd/loom/internal/scenario"
	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/host"
	"github.com/go-drift/loom/pkg/idle"
	loomtest "github.com/go-drift/loom/pkg/testing"
)

const (
	unitsKey   = "units"
	pngKey     = "png"
	journalKey = "journal"
)

var (
	// errPassAborted is returned when any frame of a scenario failed to commit.
	errPassAborted = errors.New("one or more frames failed to render")
	errNoCommit    = errors.New("frame did not commit")
)

func renderCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render the frames of a yaml scenario and report every commit",
		ArgsUsage: "scenario.yaml",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  budgetKey,
				Usage: "Idle slice length (overrides render.budget)",
			},
			&cli.IntFlag{
				Name:  unitsKey,
				Usage: "Units of work per slice; switches to the deterministic scheduler",
			},
			&cli.StringFlag{
				Name:  pngKey,
				Usage: "Write an outline of the final host tree to this PNG file",
			},
			&cli.BoolFlag{
				Name:  journalKey,
				Usage: "Print every host call made by each frame",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runRender(ctx, cmd, out)
		},
	}
}

func runRender(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("render needs a scenario file")
	}
	res, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	mem := host.NewMemory()
	drv, err := newDriver(ctx, mem, res)
	if err != nil {
		return err
	}
	defer drv.close()

	failed := false
	for i, frame := range sc.Frames {
		mem.ResetJournal()
		rec, err := drv.render(ctx, frame.Elements())
		if err != nil {
			failed = true
			fmt.Fprintf(out, "== %s: aborted: %v\n\n", frame.Name, err)
			continue
		}
		fmt.Fprintf(out, "== %s (%d/%d)\n", frame.Name, i+1, len(sc.Frames))
		printEffects(out, rec)
		if cmd.Bool(journalKey) {
			for _, c := range mem.Journal() {
				fmt.Fprintf(out, "  %s\n", c)
			}
		}
		fmt.Fprintf(out, "units=%d slices=%d host calls=%d\n", rec.Stats.Units, rec.Stats.Slices, mem.Calls())
		fmt.Fprintf(out, "host:   %s\n", mem.String())
		fmt.Fprintf(out, "digest: %s\n\n", loomtest.Capture(mem).DigestString())
	}

	if file := cmd.String(pngKey); file != "" {
		if err := writePNG(file, mem); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", file)
	}
	if failed {
		return errPassAborted
	}
	return nil
}

func resolveConfig(cmd *cli.Command) (*config.Resolved, error) {
	res, err := config.Resolve(cmd.String(configKey))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet(budgetKey) {
		res.Budget = cmd.Duration(budgetKey)
	}
	if cmd.IsSet(unitsKey) {
		res.Units = int(cmd.Int(unitsKey))
	}
	core.SetDebugMode(core.DebugMode || res.Debug || cmd.Bool(debugKey))
	return res, nil
}

func printEffects(out io.Writer, rec *core.CommitRecord) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "effect", "fiber", "after"})
	table.SetAutoWrapText(false)
	for i, e := range rec.Effects {
		table.Append([]string{strconv.Itoa(i + 1), e.Effect.String(), e.Fiber, e.Anchor})
	}
	for _, d := range rec.Deleted {
		table.Append([]string{"", "DELETE", d, ""})
	}
	table.Render()
}

func writePNG(path string, mem *host.Memory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pngdump.Write(f, mem); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// driver runs a renderer either on a Manual scheduler with a fixed number
// of units per slice, or on an idle.Loop with a wall-clock budget.
type driver struct {
	r      *core.Renderer
	units  int
	manual *idle.Manual
	loop   *idle.Loop
	stop   context.CancelFunc
	done   chan error
}

func newDriver(ctx context.Context, mem *host.Memory, res *config.Resolved) (*driver, error) {
	d := &driver{units: res.Units}
	var sched idle.Scheduler
	if d.units > 0 {
		d.manual = idle.NewManual()
		sched = d.manual
	} else {
		d.loop = idle.NewLoop(res.Budget)
		sched = d.loop
		runCtx, cancel := context.WithCancel(ctx)
		d.stop = cancel
		d.done = make(chan error, 1)
		go func() { d.done <- d.loop.Run(runCtx) }()
	}
	r, err := core.NewRenderer(mem, mem.Root(), sched, core.Options{MinRemaining: res.MinRemaining})
	if err != nil {
		d.close()
		return nil, err
	}
	d.r = r
	return d, nil
}

// render renders one frame and waits for it to commit or abort.
func (d *driver) render(ctx context.Context, children []any) (*core.CommitRecord, error) {
	before := d.r.LastCommit()
	if d.manual != nil {
		d.r.Render(children...)
		d.manual.RunUntilIdle(func() idle.Deadline { return idle.Units(d.units) })
	} else {
		if err := d.loop.Do(ctx, func() { d.r.Render(children...) }); err != nil {
			return nil, err
		}
		if err := d.loop.Drain(ctx); err != nil {
			return nil, err
		}
	}
	if err := d.r.Err(); err != nil {
		return nil, err
	}
	rec := d.r.LastCommit()
	if rec == nil || rec == before {
		return nil, errNoCommit
	}
	return rec, nil
}

func (d *driver) close() {
	if d.loop == nil {
		return
	}
	d.loop.Close()
	d.stop()
	select {
	case <-d.done:
	case <-time.After(time.Second):
	}
}
