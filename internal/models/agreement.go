package models

import (
	"time"

	"github.com/google/uuid"
)

type AgreementStatus string

const (
	AgreementStatusDraft          AgreementStatus = "draft"
	AgreementStatusReady          AgreementStatus = "ready"
	AgreementStatusPendingPayment AgreementStatus = "pending_payment"
	AgreementStatusActive         AgreementStatus = "active"
	AgreementStatusTerminated     AgreementStatus = "terminated"
	AgreementStatusCancelled      AgreementStatus = "cancelled"
	AgreementStatusCompleted      AgreementStatus = "completed"
)

// IsTerminal reports whether no further lifecycle transitions are possible.
func (s AgreementStatus) IsTerminal() bool {
	switch s {
	case AgreementStatusTerminated, AgreementStatusCancelled, AgreementStatusCompleted:
		return true
	}
	return false
}

type TerminationReason string

const (
	TerminationNonPayment        TerminationReason = "NON_PAYMENT"
	TerminationBreachOfAgreement TerminationReason = "BREACH_OF_AGREEMENT"
	TerminationIllegalActivity   TerminationReason = "ILLEGAL_ACTIVITY"
	TerminationOwnerRequirement  TerminationReason = "OWNER_REQUIREMENT"
	TerminationMutualAgreement   TerminationReason = "MUTUAL_AGREEMENT"
)

func (r TerminationReason) IsValid() bool {
	switch r {
	case TerminationNonPayment, TerminationBreachOfAgreement, TerminationIllegalActivity,
		TerminationOwnerRequirement, TerminationMutualAgreement:
		return true
	}
	return false
}

// IsBreach is true for reasons handled through admin-reviewed breach logs.
func (r TerminationReason) IsBreach() bool {
	return r == TerminationBreachOfAgreement || r == TerminationIllegalActivity
}

// RentalAgreement is the aggregate root for a lease. Its row is the lock
// every payment and termination operation takes first.
type RentalAgreement struct {
	Versioned

	ID         uuid.UUID       `json:"id"`
	PropertyID uuid.UUID       `json:"property_id"`
	UnitID     *uuid.UUID      `json:"unit_id,omitempty"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty"`
	Status     AgreementStatus `json:"status"`

	MonthlyRentCents     int64 `json:"monthly_rent_cents"`
	SecurityDepositCents int64 `json:"security_deposit_cents"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	TenantAcceptedAgreement bool `json:"tenant_accepted_agreement"`

	TerminationReason           *TerminationReason `json:"termination_reason,omitempty"`
	TerminationRequestedBy      *uuid.UUID         `json:"termination_requested_by,omitempty"`
	TerminationRequesterRole    *Role              `json:"termination_requester_role,omitempty"`
	TerminationRequestedAt      *time.Time         `json:"termination_requested_at,omitempty"`
	TerminationDescription      *string            `json:"termination_description,omitempty"`
	TerminationEffectiveDate    *time.Time         `json:"termination_effective_date,omitempty"`
	LandlordAcceptedTermination bool               `json:"landlord_accepted_termination"`
	TenantAcceptedTermination   bool               `json:"tenant_accepted_termination"`
	DidAdminApproveBreach       bool               `json:"did_admin_approve_breach"`

	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (a *RentalAgreement) GetID() string {
	return a.ID.String()
}

// IsTenant reports whether userID is the agreement's attached tenant.
func (a *RentalAgreement) IsTenant(userID uuid.UUID) bool {
	return a.TenantID != nil && *a.TenantID == userID
}

// ClearTerminationRequest resets every termination field, including both
// mutual acceptance flags.
func (a *RentalAgreement) ClearTerminationRequest() {
	a.TerminationReason = nil
	a.TerminationRequestedBy = nil
	a.TerminationRequesterRole = nil
	a.TerminationRequestedAt = nil
	a.TerminationDescription = nil
	a.LandlordAcceptedTermination = false
	a.TenantAcceptedTermination = false
}
