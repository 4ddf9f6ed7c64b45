package dtos

import (
	"time"

	"github.com/google/uuid"
)

type InitiateTerminationRequest struct {
	Reason           string  `json:"reason" validate:"required,oneof=NON_PAYMENT BREACH_OF_AGREEMENT ILLEGAL_ACTIVITY OWNER_REQUIREMENT MUTUAL_AGREEMENT"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	GraceDays        int     `json:"grace_days,omitempty" validate:"gte=0,lte=90"`
	EvidenceFileName string  `json:"evidence_file_name,omitempty" validate:"omitempty,max=255"`
	EvidenceFileURL  string  `json:"evidence_file_url,omitempty" validate:"omitempty,url"`
}

// TerminationRefRequest points confirm/cancel at an eviction log, a breach
// log, or (cancel only) the agreement's pending mutual request.
type TerminationRefRequest struct {
	Kind   string    `json:"kind" validate:"required,oneof=eviction breach agreement"`
	ID     uuid.UUID `json:"id" validate:"required"`
	Reason *string   `json:"reason,omitempty" validate:"omitempty,max=2000"`
}

type BreachReviewRequest struct {
	Outcome    string  `json:"outcome" validate:"required,oneof=pending_remedy eviction_recommended resolved"`
	RemedyDays int     `json:"remedy_days,omitempty" validate:"gte=0,lte=90"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type BreachLogResponse struct {
	ID             uuid.UUID  `json:"id"`
	AgreementID    uuid.UUID  `json:"rental_agreement_id"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	RemedyDeadline *time.Time `json:"remedy_deadline,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	AdminNotes     *string    `json:"admin_notes,omitempty"`
}

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
