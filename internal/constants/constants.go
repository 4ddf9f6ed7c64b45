package constants

import (
	"time"
)

// Billing cycle settings
const (
	BillingCycleDays    = 30 // one obligation per 30-day cycle
	BillingCycle        = BillingCycleDays * 24 * time.Hour
	PeriodDisplayLayout = "01/02/2006"
	DefaultLeaseMonths  = 12 // used when an agreement activates without an end date
)

// Termination windows
const (
	DefaultGracePeriodDays  = 7
	DefaultRemedyPeriodDays = 7
	MaxGracePeriodDays      = 90
	// An unpaid obligation must be this many calendar months past due
	// before a non-payment termination can be initiated.
	NonPaymentOverdueMonths = 1
)

// Scheduler
const (
	DefaultGraceSweepSchedule = "@every 15m"
	DailyMaintenanceSchedule  = "5 0 * * *" // 00:05 UTC
	// Upper bound on catch-up obligations generated per agreement per run.
	MaxCatchUpCycles = 24
)

// Notification bus
const (
	NotificationBufferSize = 512
)

// HTTP
const (
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)
