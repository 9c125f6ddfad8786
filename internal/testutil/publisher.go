package testutil

import (
	"context"
	"sync"

	"github.com/iliyamo/event-checkin/internal/queue"
)

// Publisher records published events in memory.
type Publisher struct {
	mu          sync.Mutex
	Err         error
	transitions []queue.TransitionEvent
	rejections  []queue.RejectionEvent
}

func (p *Publisher) PublishTransition(ctx context.Context, ev queue.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.transitions = append(p.transitions, ev)
	return nil
}

func (p *Publisher) PublishRejection(ctx context.Context, ev queue.RejectionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.rejections = append(p.rejections, ev)
	return nil
}

func (p *Publisher) Transitions() []queue.TransitionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.TransitionEvent(nil), p.transitions...)
}

func (p *Publisher) Rejections() []queue.RejectionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.RejectionEvent(nil), p.rejections...)
}
