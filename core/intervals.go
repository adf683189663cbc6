package core

import (
	"sort"
	"time"

	"github.com/signalsfoundry/pass-planner/model"
)

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// PassIntervalCollection is a sorted set of non-overlapping intervals that
// answers membership queries in O(log n).
type PassIntervalCollection struct {
	intervals []Interval
}

// NewPassIntervalCollection sorts the intervals and merges any that overlap
// or touch. Empty intervals are dropped.
func NewPassIntervalCollection(intervals []Interval) *PassIntervalCollection {
	ivs := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			ivs = append(ivs, iv)
		}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start.Before(ivs[j].Start) })

	merged := ivs[:0]
	for _, iv := range ivs {
		if n := len(merged); n > 0 && !iv.Start.After(merged[n-1].End) {
			if iv.End.After(merged[n-1].End) {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return &PassIntervalCollection{intervals: merged}
}

// IntervalsFromPasses builds a collection from sensor passes.
func IntervalsFromPasses(passes []model.Pass) *PassIntervalCollection {
	ivs := make([]Interval, len(passes))
	for i, p := range passes {
		ivs[i] = Interval{Start: p.Start, End: p.End}
	}
	return NewPassIntervalCollection(ivs)
}

// IntervalsFromElevationPasses builds a collection from elevation passes.
func IntervalsFromElevationPasses(passes []model.ElevationPass) *PassIntervalCollection {
	ivs := make([]Interval, len(passes))
	for i, p := range passes {
		ivs[i] = Interval{Start: p.Start, End: p.End}
	}
	return NewPassIntervalCollection(ivs)
}

// Len returns the number of disjoint intervals.
func (c *PassIntervalCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.intervals)
}

// Intervals returns a copy of the intervals in order.
func (c *PassIntervalCollection) Intervals() []Interval {
	if c == nil {
		return nil
	}
	return append([]Interval(nil), c.intervals...)
}

// Contains reports whether t falls inside any interval.
func (c *PassIntervalCollection) Contains(t time.Time) bool {
	iv, ok := c.Next(t)
	return ok && iv.Contains(t)
}

// Next returns the interval containing t, or failing that the first one
// starting after t.
func (c *PassIntervalCollection) Next(t time.Time) (Interval, bool) {
	if c == nil {
		return Interval{}, false
	}
	i := sort.Search(len(c.intervals), func(i int) bool { return c.intervals[i].End.After(t) })
	if i == len(c.intervals) {
		return Interval{}, false
	}
	return c.intervals[i], true
}

// Between returns the intervals that overlap [from, to).
func (c *PassIntervalCollection) Between(from, to time.Time) []Interval {
	if c == nil {
		return nil
	}
	var out []Interval
	i := sort.Search(len(c.intervals), func(i int) bool { return c.intervals[i].End.After(from) })
	for ; i < len(c.intervals) && c.intervals[i].Start.Before(to); i++ {
		out = append(out, c.intervals[i])
	}
	return out
}
