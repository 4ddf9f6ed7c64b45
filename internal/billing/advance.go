package billing

import (
	"time"

	"github.com/poofware/leasing-service/internal/models"
)

type AdvanceResult struct {
	Created        []*models.RentPayment
	RemainingCents int64
	// LastDueDate is the due date of the last advance created, zero if none.
	LastDueDate time.Time
	// NextDueDate is where the following cycle starts.
	NextDueDate time.Time
}

// GenerateAdvances turns whole cycles' worth of remainingCents into fully
// paid future obligations, the first one due at startDate.
func GenerateAdvances(a *models.RentalAgreement, remainingCents int64, meta PaymentMeta, startDate, now time.Time) AdvanceResult {
	res := AdvanceResult{RemainingCents: remainingCents, NextDueDate: startDate}
	rent := a.MonthlyRentCents
	if rent <= 0 {
		return res
	}
	for res.RemainingCents >= rent {
		p := PaidObligation(a, res.NextDueDate, rent, meta, now)
		res.Created = append(res.Created, p)
		res.LastDueDate = res.NextDueDate
		res.NextDueDate = NextCycle(res.NextDueDate)
		res.RemainingCents -= rent
	}
	return res
}

// FinalizePartial returns the single trailing partial obligation for a
// remainder smaller than one cycle, or nil when there is nothing to record.
func FinalizePartial(a *models.RentalAgreement, remainingCents int64, meta PaymentMeta, nextDueDate, now time.Time) *models.RentPayment {
	if remainingCents <= 0 || remainingCents >= a.MonthlyRentCents {
		return nil
	}
	return PaidObligation(a, nextDueDate, remainingCents, meta, now)
}
