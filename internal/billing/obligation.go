package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poofware/leasing-service/internal/models"
)

// PaymentMeta describes the payment being applied.
type PaymentMeta struct {
	Method models.PaymentMethod
	// TransactionID is the gateway-issued id. It is shared by every touched
	// obligation only when Method carries a canonical id.
	TransactionID string
	Notes         *string
}

func (m PaymentMeta) transactionIDFor() string {
	if m.Method.CarriesCanonicalTransactionID() && m.TransactionID != "" {
		return m.TransactionID
	}
	return NewTransactionID()
}

// NewTransactionID issues a locally generated transaction reference.
func NewTransactionID() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// NewObligation builds an unpaid obligation for the cycle starting at due.
func NewObligation(a *models.RentalAgreement, due time.Time, dueAmountCents int64, now time.Time) *models.RentPayment {
	var tenantID uuid.UUID
	if a.TenantID != nil {
		tenantID = *a.TenantID
	}
	return &models.RentPayment{
		ID:                uuid.New(),
		RentalAgreementID: a.ID,
		TenantID:          tenantID,
		PropertyID:        a.PropertyID,
		UnitID:            a.UnitID,
		DueDate:           due,
		DueAmountCents:    dueAmountCents,
		Status:            models.PaymentStatusPending,
		PeriodCovered:     FormatPeriod(due, 0).Label,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// applyPayment records paid cents on p and re-derives its status.
func applyPayment(p *models.RentPayment, cents int64, meta PaymentMeta, now time.Time) {
	p.AmountPaidCents += cents
	p.Status = p.DeriveStatus()
	method := meta.Method
	p.Method = &method
	txn := meta.transactionIDFor()
	p.TransactionID = &txn
	paidAt := now
	p.PaymentDate = &paidAt
	if meta.Notes != nil {
		n := *meta.Notes
		p.Notes = &n
	}
	p.PeriodCovered = FormatPeriod(p.DueDate, 0).Label
	p.UpdatedAt = now
}

// PaidObligation builds an obligation for the cycle starting at due and pays
// paidCents of it.
func PaidObligation(a *models.RentalAgreement, due time.Time, paidCents int64, meta PaymentMeta, now time.Time) *models.RentPayment {
	p := NewObligation(a, due, a.MonthlyRentCents, now)
	applyPayment(p, paidCents, meta, now)
	return p
}
