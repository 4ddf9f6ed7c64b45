package billing

import (
	"time"

	"github.com/poofware/leasing-service/internal/constants"
)

// Period is the inclusive calendar span one obligation pays for.
type Period struct {
	Start time.Time
	End   time.Time
	Label string
}

// FormatPeriod describes [start, start+durationDays-1 day] as
// "MM/DD/YYYY - MM/DD/YYYY". A non-positive duration means one billing cycle.
func FormatPeriod(start time.Time, durationDays int) Period {
	if durationDays <= 0 {
		durationDays = constants.BillingCycleDays
	}
	end := start.AddDate(0, 0, durationDays-1)
	return Period{
		Start: start,
		End:   end,
		Label: start.Format(constants.PeriodDisplayLayout) + " - " + end.Format(constants.PeriodDisplayLayout),
	}
}

// NextCycle returns the due date one billing cycle after due.
func NextCycle(due time.Time) time.Time {
	return due.AddDate(0, 0, constants.BillingCycleDays)
}
