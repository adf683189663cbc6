package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/model"
)

// maxDegenerateSteps is how many consecutive degenerate steps a sweep
// tolerates before giving up.
const maxDegenerateSteps = 30

// SweepWindow bounds a sweep in time and result count. MaxPasses of zero
// means no cap.
type SweepWindow struct {
	Start     time.Time
	End       time.Time
	MaxPasses int
}

func (w SweepWindow) validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: sweep window needs start and end", ErrInvalidInput)
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: sweep start %s is not before end %s", ErrInvalidInput,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	if w.MaxPasses < 0 {
		return fmt.Errorf("%w: negative pass cap %d", ErrInvalidInput, w.MaxPasses)
	}
	return nil
}

// budget is the number of loop iterations a fixed-step sweep may take.
func (w SweepWindow) budget(step time.Duration) int {
	return int(w.End.Sub(w.Start)/step) + 2
}

// Observer is one satellite as the sweeps see it.
type Observer struct {
	ID       string
	Name     string
	Orbit    *OrbitModel
	Sensor   model.SensorType
	Envelope model.SensorEnvelope
}

// NewObserver pairs a catalogue entry with its orbit model.
func NewObserver(sat model.Satellite, orbit *OrbitModel) Observer {
	return Observer{
		ID:       sat.ID,
		Name:     sat.Name,
		Orbit:    orbit,
		Sensor:   sat.Sensor,
		Envelope: sat.Envelope,
	}
}

func (o Observer) validate() error {
	if o.Orbit == nil {
		return fmt.Errorf("%w: observer %q has no orbit", ErrInvalidInput, o.ID)
	}
	return ValidateEnvelope(o.Envelope)
}

// passBuilder accumulates non-overlapping passes in time order.
type passBuilder struct {
	open   *model.Pass
	passes []model.Pass
	max    int
}

func (b *passBuilder) isOpen() bool { return b.open != nil }

func (b *passBuilder) start(p model.Pass) {
	b.open = &p
}

func (b *passBuilder) close(at time.Time) {
	if b.open == nil {
		return
	}
	p := *b.open
	b.open = nil
	if !at.After(p.Start) {
		return
	}
	p.End = at
	b.passes = append(b.passes, p)
}

func (b *passBuilder) full() bool {
	return b.max > 0 && len(b.passes) >= b.max
}

// finish closes a pass still open at end and flags it as truncated.
func (b *passBuilder) finish(end time.Time) []model.Pass {
	if b.open != nil && !b.full() {
		b.open.Truncated = true
		b.close(end)
	}
	b.open = nil
	return b.passes
}

// degeneracyGuard counts consecutive degenerate steps.
type degeneracyGuard struct {
	log   logging.Logger
	count int
}

// skip absorbs a numeric degeneracy at t. Any other error, or too many
// degenerate steps in a row, is returned to end the sweep.
func (g *degeneracyGuard) skip(ctx context.Context, at time.Time, err error) error {
	if !errors.Is(err, ErrNumericDegeneracy) {
		return err
	}
	g.count++
	if g.count > maxDegenerateSteps {
		return &DegeneracyError{At: at, Reason: err.Error()}
	}
	g.log.Debug(ctx, "skipping degenerate step",
		logging.Time("at", at),
		logging.Int("consecutive", g.count),
		logging.Err(err),
	)
	return nil
}

func (g *degeneracyGuard) reset() { g.count = 0 }

// stepCounter enforces the hard iteration budget of a sweep loop.
type stepCounter struct {
	used, limit int
}

func (c *stepCounter) next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.used++
	if c.used > c.limit {
		return fmt.Errorf("%w: %d iterations", ErrIterationBudget, c.limit)
	}
	return nil
}

// prevSampleOffset is how far back the heading sample is taken.
const prevSampleOffset = time.Second
