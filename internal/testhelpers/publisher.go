package testhelpers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/poofware/leasing-service/internal/eventbus"
)

// RecordingPublisher is an eventbus.Publisher that keeps every event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, evt eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *RecordingPublisher) Events() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventbus.Event(nil), p.events...)
}

// NotificationsFor returns the titles of notifications addressed to userID.
func (p *RecordingPublisher) NotificationsFor(userID uuid.UUID) []string {
	var titles []string
	for _, evt := range p.Events() {
		if n, ok := evt.Payload.(eventbus.NotificationRequested); ok && n.UserID == userID {
			titles = append(titles, n.Title)
		}
	}
	return titles
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
