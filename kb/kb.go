// Package kb holds the satellite catalogue shared by the planner, the
// tracker and the API.
package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/pass-planner/model"
	"github.com/signalsfoundry/pass-planner/tle"
)

var (
	ErrSatelliteExists   = errors.New("satellite already exists")
	ErrSatelliteNotFound = errors.New("satellite not found")
	ErrInvalidSatellite  = errors.New("invalid satellite")
)

// EventType indicates what kind of change happened in the catalogue.
type EventType int

const (
	EventSatelliteAdded EventType = iota
	EventSatelliteUpdated
	EventSatelliteRemoved
)

func (e EventType) String() string {
	switch e {
	case EventSatelliteAdded:
		return "added"
	case EventSatelliteUpdated:
		return "updated"
	case EventSatelliteRemoved:
		return "removed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Event is emitted to subscribers after a change is committed.
type Event struct {
	Type      EventType
	Satellite model.Satellite
}

// Catalog is an in-memory, thread-safe satellite store. Satellites are
// stored and returned by value so callers never share state with it.
type Catalog struct {
	mu         sync.RWMutex
	satellites map[string]model.Satellite

	nextSub int
	subs    map[int]func(Event)
}

// NewCatalog constructs an empty catalogue.
func NewCatalog() *Catalog {
	return &Catalog{
		satellites: make(map[string]model.Satellite),
		subs:       make(map[int]func(Event)),
	}
}

func validate(s model.Satellite) error {
	if s.ID == "" {
		return fmt.Errorf("%w: empty ID", ErrInvalidSatellite)
	}
	if _, err := tle.ParseLines(s.Name, s.Line1, s.Line2); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSatellite, s.ID, err)
	}
	return nil
}

// Add inserts a new satellite. It fails if the ID is taken or the TLE does
// not parse.
func (c *Catalog) Add(s model.Satellite) error {
	if err := validate(s); err != nil {
		return err
	}
	c.mu.Lock()
	if _, exists := c.satellites[s.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSatelliteExists, s.ID)
	}
	c.satellites[s.ID] = s.Clone()
	subs := c.snapshotSubs()
	c.mu.Unlock()

	notify(subs, Event{Type: EventSatelliteAdded, Satellite: s.Clone()})
	return nil
}

// Upsert inserts or replaces a satellite.
func (c *Catalog) Upsert(s model.Satellite) error {
	if err := validate(s); err != nil {
		return err
	}
	c.mu.Lock()
	_, existed := c.satellites[s.ID]
	c.satellites[s.ID] = s.Clone()
	subs := c.snapshotSubs()
	c.mu.Unlock()

	ev := Event{Type: EventSatelliteAdded, Satellite: s.Clone()}
	if existed {
		ev.Type = EventSatelliteUpdated
	}
	notify(subs, ev)
	return nil
}

// UpdateTLE replaces the element set of an existing satellite.
func (c *Catalog) UpdateTLE(id, line1, line2 string) error {
	c.mu.Lock()
	s, ok := c.satellites[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSatelliteNotFound, id)
	}
	if _, err := tle.ParseLines(s.Name, line1, line2); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%w %q: %w", ErrInvalidSatellite, id, err)
	}
	s.Line1, s.Line2 = line1, line2
	c.satellites[id] = s
	subs := c.snapshotSubs()
	c.mu.Unlock()

	notify(subs, Event{Type: EventSatelliteUpdated, Satellite: s.Clone()})
	return nil
}

// Remove deletes a satellite.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	s, ok := c.satellites[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSatelliteNotFound, id)
	}
	delete(c.satellites, id)
	subs := c.snapshotSubs()
	c.mu.Unlock()

	notify(subs, Event{Type: EventSatelliteRemoved, Satellite: s})
	return nil
}

// Get returns the satellite with the given ID.
func (c *Catalog) Get(id string) (model.Satellite, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.satellites[id]
	if !ok {
		return model.Satellite{}, false
	}
	return s.Clone(), true
}

// List returns a snapshot of all satellites ordered by ID.
func (c *Catalog) List() []model.Satellite {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.Satellite, 0, len(c.satellites))
	for _, s := range c.satellites {
		res = append(res, s.Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// WithTag returns the satellites carrying tag, ordered by ID.
func (c *Catalog) WithTag(tag string) []model.Satellite {
	var res []model.Satellite
	for _, s := range c.List() {
		if s.HasTag(tag) {
			res = append(res, s)
		}
	}
	return res
}

// Len returns the number of satellites.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.satellites)
}

// Subscribe registers a callback for catalogue events. Callbacks run on the
// mutating goroutine after the lock is released. It returns an unsubscribe
// function that is safe to call more than once.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// snapshotSubs must be called with c.mu held.
func (c *Catalog) snapshotSubs() []func(Event) {
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), len(ids))
	for i, id := range ids {
		subs[i] = c.subs[id]
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
