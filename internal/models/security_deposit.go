package models

import (
	"time"

	"github.com/google/uuid"
)

type DepositStatus string

const (
	DepositStatusHeld              DepositStatus = "held"
	DepositStatusRefunded          DepositStatus = "refunded"
	DepositStatusPartiallyRefunded DepositStatus = "partially_refunded"
	DepositStatusForfeited         DepositStatus = "forfeited"
)

type SecurityDeposit struct {
	Versioned

	ID                  uuid.UUID     `json:"id"`
	RentalAgreementID   uuid.UUID     `json:"rental_agreement_id"`
	TenantID            uuid.UUID     `json:"tenant_id"`
	AmountCents         int64         `json:"amount_cents"`
	RefundedAmountCents int64         `json:"refunded_amount_cents"`
	Status              DepositStatus `json:"status"`
	TransactionID       *string       `json:"transaction_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (d *SecurityDeposit) GetID() string {
	return d.ID.String()
}

// HeldCents is the portion still held by the landlord.
func (d *SecurityDeposit) HeldCents() int64 {
	if d.Status != DepositStatusHeld && d.Status != DepositStatusPartiallyRefunded {
		return 0
	}
	if h := d.AmountCents - d.RefundedAmountCents; h > 0 {
		return h
	}
	return 0
}
