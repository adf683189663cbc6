package planner

import "context"

// Future is the pending result of a plan started with Submit.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc
	res    Result
	err    error
}

// Submit starts req in the background. The plan stops early when ctx is
// cancelled or Cancel is called.
func (p *Planner) Submit(ctx context.Context, req Request) *Future {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(f.done)
		defer cancel()
		f.res, f.err = p.Plan(ctx, req)
	}()
	return f
}

// Done is closed once the plan has finished or been cancelled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Cancel asks the plan to stop.
func (f *Future) Cancel() { f.cancel() }

// Wait blocks until the plan finishes or ctx ends. Cancelling ctx does not
// cancel the plan itself.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
