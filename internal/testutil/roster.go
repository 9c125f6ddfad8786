package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/repository"
)

// MemRoster is an in-memory participant and event directory.
type MemRoster struct {
	mu           sync.Mutex
	events       map[string]model.Event
	participants map[string]model.Participant
	order        []string
	down         bool
}

func NewMemRoster() *MemRoster {
	return &MemRoster{events: map[string]model.Event{}, participants: map[string]model.Participant{}}
}

func (r *MemRoster) SetDown(down bool) {
	r.mu.Lock()
	r.down = down
	r.mu.Unlock()
}

func (r *MemRoster) AddEvent(e model.Event) {
	r.mu.Lock()
	r.events[e.Ref] = e
	r.mu.Unlock()
}

// AddParticipant registers p, replacing a participant with the same Ref.
func (r *MemRoster) AddParticipant(p model.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[p.Ref]; !ok {
		r.order = append(r.order, p.Ref)
	}
	r.participants[p.Ref] = p
}

// Remove deletes a participant.
func (r *MemRoster) Remove(participantRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, participantRef)
	for i, ref := range r.order {
		if ref == participantRef {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MemRoster) check() error {
	if r.down {
		return fmt.Errorf("roster: %w: %w", repository.ErrStoreUnavailable, ErrDown)
	}
	return nil
}

func (r *MemRoster) ResolveParticipant(ctx context.Context, participantRef string) (model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return model.Participant{}, err
	}
	p, ok := r.participants[participantRef]
	if !ok {
		return model.Participant{}, repository.ErrParticipantNotFound
	}
	return p, nil
}

func (r *MemRoster) Event(ctx context.Context, eventRef string) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return model.Event{}, err
	}
	e, ok := r.events[eventRef]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (r *MemRoster) ListParticipants(ctx context.Context, eventRef string) ([]model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	var out []model.Participant
	for _, ref := range r.order {
		if p := r.participants[ref]; p.EventRef == eventRef {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemRoster) ExpectedCount(ctx context.Context, eventRef string) (int, error) {
	ps, err := r.ListParticipants(ctx, eventRef)
	return len(ps), err
}

func (r *MemRoster) MarkCredentialIssued(ctx context.Context, participantRef, checksum string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return false, err
	}
	p, ok := r.participants[participantRef]
	if !ok || p.CredentialChecksum != "" {
		return false, nil
	}
	p.CredentialChecksum = checksum
	p.CredentialIssuedAt = &at
	r.participants[participantRef] = p
	return true, nil
}
