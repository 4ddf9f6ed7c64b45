package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusOverdued  PaymentStatus = "overdued"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// OutstandingPaymentStatuses are the obligation states that still owe money.
var OutstandingPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusOverdued,
	PaymentStatusPartial,
}

func (s PaymentStatus) IsOutstanding() bool {
	for _, o := range OutstandingPaymentStatuses {
		if s == o {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodSimulated    PaymentMethod = "simulated"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodSimulated, PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck:
		return true
	}
	return false
}

// CarriesCanonicalTransactionID is true for methods whose gateway already
// issued the transaction id every touched obligation should share.
func (m PaymentMethod) CarriesCanonicalTransactionID() bool {
	return m == PaymentMethodSimulated
}

// RentPayment is one rent obligation for one billing cycle.
type RentPayment struct {
	Versioned

	ID                uuid.UUID  `json:"id"`
	RentalAgreementID uuid.UUID  `json:"rental_agreement_id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	PropertyID        uuid.UUID  `json:"property_id"`
	UnitID            *uuid.UUID `json:"unit_id,omitempty"`

	DueDate         time.Time     `json:"due_date"`
	DueAmountCents  int64         `json:"due_amount_cents"`
	AmountPaidCents int64         `json:"amount_paid_cents"`
	Status          PaymentStatus `json:"status"`

	Method        *PaymentMethod `json:"method,omitempty"`
	TransactionID *string        `json:"transaction_id,omitempty"`
	PeriodCovered string         `json:"period_covered"`
	PaymentDate   *time.Time     `json:"payment_date,omitempty"`
	Notes         *string        `json:"notes,omitempty"`

	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *RentPayment) GetID() string {
	return p.ID.String()
}

// BalanceCents is what is still owed on this obligation; never negative.
func (p *RentPayment) BalanceCents() int64 {
	if b := p.DueAmountCents - p.AmountPaidCents; b > 0 {
		return b
	}
	return 0
}

// DeriveStatus returns the status implied by the paid amount. Cancelled and
// refunded obligations keep their status.
func (p *RentPayment) DeriveStatus() PaymentStatus {
	switch {
	case p.Status == PaymentStatusCancelled || p.Status == PaymentStatusRefunded:
		return p.Status
	case p.AmountPaidCents >= p.DueAmountCents:
		return PaymentStatusCompleted
	case p.AmountPaidCents > 0:
		return PaymentStatusPartial
	}
	return p.Status
}
