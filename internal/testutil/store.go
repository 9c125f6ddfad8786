package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/repository"
)

// ErrDown is the cause reported while a fake is failing.
var ErrDown = errors.New("fake store down")

type key struct{ p, e string }

// MemStore is an in-memory check-in store.  Transition applies its guard
// under one mutex, the way a conditional UPDATE does in the database.
type MemStore struct {
	mu      sync.Mutex
	records map[key]model.CheckinRecord
	down    atomic.Bool

	// Transitions counts calls to Transition.
	Transitions atomic.Int64
}

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[key]model.CheckinRecord)}
}

// SetDown makes every call fail with repository.ErrStoreUnavailable.
func (s *MemStore) SetDown(down bool) { s.down.Store(down) }

func (s *MemStore) err(op string) error {
	if s.down.Load() {
		return fmt.Errorf("%s: %w: %w", op, repository.ErrStoreUnavailable, ErrDown)
	}
	return nil
}

// Put stores rec as is.
func (s *MemStore) Put(rec model.CheckinRecord) {
	s.mu.Lock()
	s.records[key{rec.ParticipantRef, rec.EventRef}] = rec
	s.mu.Unlock()
}

func (s *MemStore) Get(ctx context.Context, participantRef, eventRef string) (model.CheckinRecord, error) {
	if err := s.err("get"); err != nil {
		return model.CheckinRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(participantRef, eventRef), nil
}

func (s *MemStore) getLocked(participantRef, eventRef string) model.CheckinRecord {
	rec, ok := s.records[key{participantRef, eventRef}]
	if !ok {
		return model.CheckinRecord{ParticipantRef: participantRef, EventRef: eventRef, Status: model.StatusNotCheckedIn}
	}
	return rec
}

func (s *MemStore) Transition(ctx context.Context, t model.Transition) (bool, error) {
	s.Transitions.Add(1)
	if err := s.err("transition"); err != nil {
		return false, err
	}
	if len(t.From) == 0 || !t.To.Valid() {
		return false, errors.New("invalid transition")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.getLocked(t.ParticipantRef, t.EventRef)
	match := false
	for _, f := range t.From {
		if rec.Status == f {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	at := t.At
	rec.Status = t.To
	rec.UpdatedAt = at
	switch t.To {
	case model.StatusCheckedIn:
		rec.Method = t.Method
		rec.CheckedInAt = &at
	case model.StatusCheckedOut:
		rec.CheckedOutAt = &at
	case model.StatusCancelled:
		rec.CheckedInAt = nil
		rec.CheckedOutAt = nil
	}
	s.records[key{t.ParticipantRef, t.EventRef}] = rec
	return true, nil
}

func (s *MemStore) ListByEvent(ctx context.Context, eventRef string) ([]model.CheckinRecord, error) {
	if err := s.err("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CheckinRecord
	for k, rec := range s.records {
		if k.e == eventRef {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantRef < out[j].ParticipantRef })
	return out, nil
}

func (s *MemStore) SetFlag(ctx context.Context, participantRef, eventRef string, flag model.Flag, value bool, at time.Time) error {
	if err := s.err("set flag"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.getLocked(participantRef, eventRef)
	switch flag {
	case model.FlagBadgePrinted:
		rec.BadgePrinted = value
	case model.FlagMaterialsProvided:
		rec.MaterialsProvided = value
	default:
		return fmt.Errorf("unknown flag %q", flag)
	}
	rec.UpdatedAt = at
	s.records[key{participantRef, eventRef}] = rec
	return nil
}

func (s *MemStore) MarkNoShows(ctx context.Context, eventRef string, participantRefs []string, at time.Time) (int64, error) {
	if err := s.err("mark no-shows"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range participantRefs {
		rec := s.getLocked(p, eventRef)
		if rec.Status != model.StatusNotCheckedIn {
			continue
		}
		rec.Status = model.StatusNoShow
		rec.UpdatedAt = at
		s.records[key{p, eventRef}] = rec
		n++
	}
	return n, nil
}
