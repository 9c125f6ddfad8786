package checkin

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/event-checkin/internal/debounce"
	"github.com/iliyamo/event-checkin/internal/model"
)

// Station is one entry point: it scans for a single event and owns its
// debouncer.
type Station struct {
	ID       string
	EventRef string

	svc  *Service
	deb  *debounce.Debouncer
	mu   sync.Mutex
	last time.Time
}

// NewStation binds a station to svc.  window <= 0 selects
// debounce.DefaultWindow.
func NewStation(svc *Service, id, eventRef string, window time.Duration) *Station {
	return &Station{ID: id, EventRef: eventRef, svc: svc, deb: debounce.New(window), last: svc.Now()}
}

// Scan processes raw scanner text.  Repeats of the same text inside the
// debounce window return OutcomeSuppressed without touching the store.
func (s *Station) Scan(ctx context.Context, raw string) Outcome {
	now := s.svc.Now()
	s.mu.Lock()
	s.last = now
	s.mu.Unlock()

	if !s.deb.ShouldProcess(raw, now) {
		return Outcome{Kind: OutcomeSuppressed, Method: model.MethodScan, EventRef: s.EventRef}
	}
	return s.svc.ProcessScan(WithStation(ctx, s.ID), raw, s.EventRef)
}

func (s *Station) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type stationID struct{ id, event string }

// Stations lazily creates and keeps the stations seen by the HTTP server.
type Stations struct {
	svc    *Service
	window time.Duration

	mu       sync.Mutex
	stations map[stationID]*Station
}

func NewStations(svc *Service, window time.Duration) *Stations {
	return &Stations{svc: svc, window: window, stations: make(map[stationID]*Station)}
}

// Get returns the station for (id, eventRef), creating it on first use.
// A station switched to another event starts with a fresh debouncer.
func (r *Stations) Get(id, eventRef string) *Station {
	k := stationID{id: id, event: eventRef}
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stations[k]
	if !ok {
		st = NewStation(r.svc, id, eventRef, r.window)
		r.stations[k] = st
	}
	return st
}

// Prune drops stations idle for longer than idle and returns how many were
// removed.
func (r *Stations) Prune(now time.Time, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, st := range r.stations {
		if now.Sub(st.lastUsed()) > idle {
			delete(r.stations, k)
			n++
		}
	}
	return n
}

// Len returns the number of live stations.
func (r *Stations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stations)
}
