package models

import (
	"time"

	"github.com/google/uuid"
)

type EvictionStatus string

const (
	EvictionStatusWarning   EvictionStatus = "warning"
	EvictionStatusCancelled EvictionStatus = "cancelled"
	EvictionStatusEvicted   EvictionStatus = "evicted"
)

// EvictionLog tracks a grace-period termination (non-payment, owner
// requirement or mutual agreement).
type EvictionLog struct {
	Versioned

	ID                uuid.UUID         `json:"id"`
	RentalAgreementID uuid.UUID         `json:"rental_agreement_id"`
	Reason            TerminationReason `json:"reason"`
	Status            EvictionStatus    `json:"status"`
	InitiatedBy       uuid.UUID         `json:"initiated_by"`
	InitiatorRole     Role              `json:"initiator_role"`
	Description       *string           `json:"description,omitempty"`

	WarningSentAt  time.Time `json:"warning_sent_at"`
	GracePeriodEnd time.Time `json:"grace_period_end"`

	CancelledBy  *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`
	FinalizedAt  *time.Time `json:"finalized_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *EvictionLog) GetID() string {
	return e.ID.String()
}
