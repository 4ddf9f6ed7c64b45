package models

import (
	"time"

	"github.com/google/uuid"
)

type BreachStatus string

const (
	BreachStatusWarning             BreachStatus = "warning"
	BreachStatusPendingRemedy       BreachStatus = "pending_remedy"
	BreachStatusResolved            BreachStatus = "resolved"
	BreachStatusEvictionRecommended BreachStatus = "eviction_recommended"
	BreachStatusCancelled           BreachStatus = "cancelled"
	BreachStatusEvicted             BreachStatus = "evicted"
)

// BreachLog tracks a breach or illegal-activity report through admin review.
type BreachLog struct {
	Versioned

	ID                uuid.UUID         `json:"id"`
	RentalAgreementID uuid.UUID         `json:"rental_agreement_id"`
	Reason            TerminationReason `json:"reason"`
	Status            BreachStatus      `json:"status"`
	ReportedBy        uuid.UUID         `json:"reported_by"`
	Description       *string           `json:"description,omitempty"`

	EvidenceFileName string `json:"evidence_file_name"`
	EvidenceFileURL  string `json:"evidence_file_url"`

	ReviewedBy     *uuid.UUID `json:"reviewed_by,omitempty"`
	AdminNotes     *string    `json:"admin_notes,omitempty"`
	RemedyDeadline *time.Time `json:"remedy_deadline,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	FinalizedAt    *time.Time `json:"finalized_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BreachLog) GetID() string {
	return b.ID.String()
}
