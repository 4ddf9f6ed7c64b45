package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribersAndDrainsOnStop(t *testing.T) {
	bus := New(16)

	var mu sync.Mutex
	var got []string
	record := func(name string) HandlerFunc {
		return func(_ context.Context, evt Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+evt.Payload.(NotificationRequested).Title)
			return nil
		}
	}
	bus.Subscribe("a", record("a"))
	bus.Subscribe("failing", HandlerFunc(func(context.Context, Event) error { return errors.New("boom") }))
	bus.Subscribe("b", record("b"))
	bus.Start(context.Background())

	agreementID := uuid.New()
	for _, title := range []string{"one", "two"} {
		bus.Publish(context.Background(), NewNotificationEvent(agreementID, time.Now(), NotificationRequested{UserID: uuid.New(), Title: title}))
	}
	bus.Stop()

	require.Equal(t, []string{"a:one", "b:one", "a:two", "b:two"}, got)
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := New(1)
	bus.Publish(context.Background(), Event{ID: uuid.New()})
	bus.Publish(context.Background(), Event{ID: uuid.New()})
	require.Len(t, bus.events, 1)
}
