package core

import (
	"time"

	"github.com/signalsfoundry/pass-planner/model"
)

// Aggregate merges pass lists from independent sweeps into one list ordered
// by start time. Passes with equal starts keep no particular order.
func Aggregate(lists ...[]model.Pass) []model.Pass {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	all := make([]model.Pass, 0, n)
	for _, l := range lists {
		all = append(all, l...)
	}
	return sortByStart(all, func(p model.Pass) time.Time { return p.Start })
}

// AggregateElevation is Aggregate for elevation passes.
func AggregateElevation(lists ...[]model.ElevationPass) []model.ElevationPass {
	var all []model.ElevationPass
	for _, l := range lists {
		all = append(all, l...)
	}
	return sortByStart(all, func(p model.ElevationPass) time.Time { return p.Start })
}

// sortByStart is a partition sort around the middle element: items starting
// strictly before the pivot go left, everything else goes right.
func sortByStart[T any](items []T, start func(T) time.Time) []T {
	if len(items) <= 1 {
		return items
	}
	mid := len(items) / 2
	pivot := items[mid]
	pivotStart := start(pivot)

	left := make([]T, 0, mid)
	right := make([]T, 0, len(items)-mid)
	for i, it := range items {
		if i == mid {
			continue
		}
		if start(it).Before(pivotStart) {
			left = append(left, it)
		} else {
			right = append(right, it)
		}
	}

	out := sortByStart(left, start)
	out = append(out, pivot)
	return append(out, sortByStart(right, start)...)
}
