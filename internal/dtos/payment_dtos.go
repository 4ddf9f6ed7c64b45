package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/utils"
)

type PaymentRequest struct {
	Amount string  `json:"amount" validate:"required"`
	Method string  `json:"method" validate:"required,oneof=simulated cash bank_transfer check"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type ObligationResponse struct {
	ID            uuid.UUID            `json:"id"`
	DueDate       time.Time            `json:"due_date"`
	DueAmount     string               `json:"due_amount"`
	AmountPaid    string               `json:"amount_paid"`
	Status        models.PaymentStatus `json:"status"`
	PeriodCovered string               `json:"period_covered"`
	TransactionID *string              `json:"transaction_id,omitempty"`
}

func NewObligationResponse(p *models.RentPayment) ObligationResponse {
	return ObligationResponse{
		ID:            p.ID,
		DueDate:       p.DueDate,
		DueAmount:     utils.FormatCents(p.DueAmountCents),
		AmountPaid:    utils.FormatCents(p.AmountPaidCents),
		Status:        p.Status,
		PeriodCovered: p.PeriodCovered,
		TransactionID: p.TransactionID,
	}
}

func NewObligationResponses(list []*models.RentPayment) []ObligationResponse {
	out := make([]ObligationResponse, 0, len(list))
	for _, p := range list {
		out = append(out, NewObligationResponse(p))
	}
	return out
}

type DepositResponse struct {
	ID            uuid.UUID            `json:"id"`
	Amount        string               `json:"amount"`
	Refunded      string               `json:"refunded"`
	Status        models.DepositStatus `json:"status"`
	TransactionID *string              `json:"transaction_id,omitempty"`
}

func NewDepositResponse(d *models.SecurityDeposit) DepositResponse {
	return DepositResponse{
		ID:            d.ID,
		Amount:        utils.FormatCents(d.AmountCents),
		Refunded:      utils.FormatCents(d.RefundedAmountCents),
		Status:        d.Status,
		TransactionID: d.TransactionID,
	}
}

type InitialPaymentResponse struct {
	AgreementStatus models.AgreementStatus `json:"agreement_status"`
	Obligation      ObligationResponse     `json:"obligation"`
	Deposit         DepositResponse        `json:"deposit"`
	Advances        []ObligationResponse   `json:"advances"`
	Partial         *ObligationResponse    `json:"partial,omitempty"`
}

type PaymentResponse struct {
	Status                 string      `json:"status"`
	TransactionID          *string     `json:"transaction_id,omitempty"`
	AllocatedObligationIDs []uuid.UUID `json:"allocated_obligation_ids"`
	CreatedObligationIDs   []uuid.UUID `json:"created_obligation_ids"`
	RemainingBalance       string      `json:"remaining_balance"`
}

// DepositRefundRequest refunds everything still held when Amount is omitted.
type DepositRefundRequest struct {
	Amount *string `json:"amount,omitempty"`
}

type AdvanceRefundResponse struct {
	AgreementID         uuid.UUID `json:"agreement_id"`
	RefundedObligations int64     `json:"refunded_obligations"`
	Refunded            string    `json:"refunded"`
}
