package eventbus

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventNotificationRequested EventType = "notification_requested"
)

// Event is published only after the transaction that produced it commits.
type Event struct {
	ID          uuid.UUID
	Type        EventType
	AgreementID uuid.UUID
	OccurredAt  time.Time
	Payload     any
}

// NotificationRequested asks the notification consumer to tell one user
// something.
type NotificationRequested struct {
	UserID uuid.UUID
	Title  string
	Body   string
}

func NewNotificationEvent(agreementID uuid.UUID, at time.Time, n NotificationRequested) Event {
	return Event{
		ID:          uuid.New(),
		Type:        EventNotificationRequested,
		AgreementID: agreementID,
		OccurredAt:  at,
		Payload:     n,
	}
}
