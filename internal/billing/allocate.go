package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/poofware/leasing-service/internal/models"
)

// Allocation records what one obligation received.
type Allocation struct {
	PaymentID          uuid.UUID
	AppliedCents       int64
	BalanceBeforeCents int64
	BalanceAfterCents  int64
}

type AllocationResult struct {
	// Updated holds modified copies of the touched obligations; callers persist them.
	Updated             []*models.RentPayment
	Allocations         []Allocation
	TotalAllocatedCents int64
	RemainingCents      int64
}

// Allocate spreads amountCents over dues oldest first. The inputs are not
// modified. Obligations without a balance are skipped; allocation stops as
// soon as the amount is exhausted.
func Allocate(dues []*models.RentPayment, amountCents int64, meta PaymentMeta, now time.Time) AllocationResult {
	ordered := make([]*models.RentPayment, len(dues))
	copy(ordered, dues)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DueDate.Before(ordered[j].DueDate)
	})

	res := AllocationResult{RemainingCents: amountCents}
	for _, due := range ordered {
		if res.RemainingCents <= 0 {
			break
		}
		balance := due.BalanceCents()
		if balance <= 0 {
			continue
		}
		pay := min(res.RemainingCents, balance)

		updated := *due
		applyPayment(&updated, pay, meta, now)

		res.Updated = append(res.Updated, &updated)
		res.Allocations = append(res.Allocations, Allocation{
			PaymentID:          due.ID,
			AppliedCents:       pay,
			BalanceBeforeCents: balance,
			BalanceAfterCents:  balance - pay,
		})
		res.TotalAllocatedCents += pay
		res.RemainingCents -= pay
	}
	return res
}
