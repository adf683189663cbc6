package core

import (
	"sort"
	"testing"
	"time"

	"github.com/signalsfoundry/pass-planner/model"
)

func passAt(sat string, offset time.Duration) model.Pass {
	start := testEpoch.Add(offset)
	return model.Pass{SatelliteID: sat, Start: start, End: start.Add(time.Minute)}
}

func TestAggregateOrdersAcrossLists(t *testing.T) {
	a := []model.Pass{passAt("a", 10*time.Minute), passAt("a", 50*time.Minute), passAt("a", 90*time.Minute)}
	b := []model.Pass{passAt("b", 5*time.Minute), passAt("b", 60*time.Minute)}
	c := []model.Pass{passAt("c", 70*time.Minute), passAt("c", 10*time.Minute)}

	got := Aggregate(a, b, nil, c)
	if len(got) != len(a)+len(b)+len(c) {
		t.Fatalf("len = %d, want %d", len(got), len(a)+len(b)+len(c))
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Start.Before(got[j].Start) }) {
		t.Fatalf("output not sorted: %+v", got)
	}
	if got[0].SatelliteID != "b" || got[len(got)-1].SatelliteID != "a" {
		t.Fatalf("unexpected ends: first %s last %s", got[0].SatelliteID, got[len(got)-1].SatelliteID)
	}
}

func TestAggregateManyEqualStarts(t *testing.T) {
	var list []model.Pass
	for i := 0; i < 200; i++ {
		list = append(list, passAt("x", time.Duration(i%7)*time.Minute))
	}
	got := Aggregate(list)
	if len(got) != 200 {
		t.Fatalf("len = %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start.Before(got[i-1].Start) {
			t.Fatalf("not sorted at %d", i)
		}
	}
	if len(Aggregate()) != 0 {
		t.Fatalf("empty aggregate should be empty")
	}
}

func TestAggregateElevation(t *testing.T) {
	late := model.ElevationPass{SatelliteID: "late", Start: testEpoch.Add(time.Hour)}
	early := model.ElevationPass{SatelliteID: "early", Start: testEpoch}
	got := AggregateElevation([]model.ElevationPass{late}, []model.ElevationPass{early})
	if got[0].SatelliteID != "early" {
		t.Fatalf("order = %+v", got)
	}
}
