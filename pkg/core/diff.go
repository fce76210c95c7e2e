package core

import (
	"time"

	loomerrors "github.com/go-drift/loom/pkg/errors"
)

// diffUnit performs the work for one fiber: creating text nodes, running
// components and reconciling children against the alternate.
func (r *Renderer) diffUnit(f *Fiber) error {
	switch f.Kind {
	case KindRoot, KindFragment:
		if f.skipSubtree {
			return nil
		}
		r.reconcileChildren(f, f.props.Children)

	case KindText:
		if f.node == nil {
			f.node = r.host.CreateText(f.text())
		}

	case KindInline:
		if f.node == nil {
			f.node = r.host.SetInline(nil, f.text())
		}

	case KindComponent:
		if f.skipSubtree {
			return nil
		}
		pass := r.pass
		children, err := r.renderComponent(f)
		if err != nil {
			return err
		}
		if r.pass != pass {
			// The render changed state and restarted the walk; f belongs to
			// the abandoned tree.
			return nil
		}
		r.rendered = append(r.rendered, f.inst)
		r.reconcileChildren(f, children)

	case KindHost:
		if f.node == nil {
			f.pendingCreate = true
		}
		if f.skipSubtree {
			return nil
		}
		r.reconcileChildren(f, f.props.Children)
	}
	return nil
}

// renderComponent calls the component function. A panic aborts the pass
// and is returned as a *errors.BuildError.
func (r *Renderer) renderComponent(f *Fiber) (children []*Element, err error) {
	inst := f.inst
	ctx := &Context{r: r, fiber: f, inst: inst}
	inst.cursor = 0
	inst.watching.Clear()

	defer func() {
		ctx.done = true
		if rec := recover(); rec != nil {
			buildErr := &loomerrors.BuildError{
				Component:  funcName(f.fn),
				Path:       f.path(),
				Recovered:  rec,
				StackTrace: loomerrors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			loomerrors.ReportBuildError(buildErr)
			children, err = nil, buildErr
		}
	}()

	return Normalize(f.fn(ctx, f.props)), nil
}
