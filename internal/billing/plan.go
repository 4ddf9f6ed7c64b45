package billing

import (
	"time"

	"github.com/poofware/leasing-service/internal/models"
)

// Plan is the full effect of one payment: updates to existing obligations
// plus new advance and partial obligations. Nothing is persisted here.
type Plan struct {
	Allocation AllocationResult
	Advances   AdvanceResult
	Partial    *models.RentPayment
}

// PlanPayment runs allocation, then advances starting at advanceStart, then
// the trailing partial.
func PlanPayment(
	a *models.RentalAgreement,
	dues []*models.RentPayment,
	amountCents int64,
	meta PaymentMeta,
	advanceStart time.Time,
	now time.Time,
) Plan {
	alloc := Allocate(dues, amountCents, meta, now)
	adv := GenerateAdvances(a, alloc.RemainingCents, meta, advanceStart, now)
	partial := FinalizePartial(a, adv.RemainingCents, meta, adv.NextDueDate, now)
	return Plan{Allocation: alloc, Advances: adv, Partial: partial}
}

// Inserts lists the new obligations to persist, in due-date order.
func (p Plan) Inserts() []*models.RentPayment {
	out := make([]*models.RentPayment, 0, len(p.Advances.Created)+1)
	out = append(out, p.Advances.Created...)
	if p.Partial != nil {
		out = append(out, p.Partial)
	}
	return out
}

// AppliedCents is the total the plan assigns to obligations. For a
// well-formed plan it equals the payment amount.
func (p Plan) AppliedCents() int64 {
	total := p.Allocation.TotalAllocatedCents
	for _, o := range p.Inserts() {
		total += o.AmountPaidCents
	}
	return total
}

// UnappliedCents is what is left after the partial (always 0 unless the
// agreement has no positive rent).
func (p Plan) UnappliedCents() int64 {
	if p.Partial != nil {
		return 0
	}
	return p.Advances.RemainingCents
}

func (p Plan) CreatedAdvance() bool {
	return len(p.Advances.Created) > 0 || p.Partial != nil
}
