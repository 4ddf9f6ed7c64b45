// Package eventbus is the in-process pub/sub used to hand committed domain
// events to side-effect consumers (notifications). Publishing never blocks
// the request path.
package eventbus

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/utils"
)

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Handler processes an event. Errors are logged by the bus.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Bus buffers events on a channel and dispatches them to every subscriber
// from a single consumer goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan Event
	done        chan struct{}
	closeOnce   sync.Once
}

type namedHandler struct {
	name    string
	handler Handler
}

func New(bufSize int) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan Event, bufSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish enqueues evt. If the buffer is full the event is dropped and logged.
func (b *Bus) Publish(_ context.Context, evt Event) {
	select {
	case b.events <- evt:
	default:
		utils.Logger.WithFields(logrus.Fields{
			"event_type": evt.Type,
			"event_id":   evt.ID,
		}).Warn("eventbus: buffer full, dropping event")
	}
}

// Start runs the consumer until Stop is called. Events still buffered at
// Stop are drained first.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for evt := range b.events {
			b.dispatch(ctx, evt)
		}
	}()
}

// Stop closes the queue and waits for the consumer to drain it. Publishing
// after Stop panics, so stop the bus only after the HTTP server and cron.
func (b *Bus) Stop() {
	b.closeOnce.Do(func() { close(b.events) })
	<-b.done
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			utils.Logger.WithError(err).WithFields(logrus.Fields{
				"subscriber": s.name,
				"event_type": evt.Type,
			}).Error("eventbus: handler error")
		}
	}
}
