package routes

const (
	// Health
	Health = "/health"

	// Agreement lifecycle
	Agreements      = "/api/v1/agreements"
	Agreement       = "/api/v1/agreements/{id}"
	AgreementTenant = "/api/v1/agreements/{id}/tenant"
	AgreementReady  = "/api/v1/agreements/{id}/ready"
	AgreementAccept = "/api/v1/agreements/{id}/accept"
	AgreementCancel = "/api/v1/agreements/{id}/cancel"

	// Payments and refunds
	AgreementInitialPayment = "/api/v1/agreements/{id}/payments/initial"
	AgreementPayments       = "/api/v1/agreements/{id}/payments"
	AgreementDepositRefund  = "/api/v1/agreements/{id}/refunds/deposit"
	AgreementAdvanceRefund  = "/api/v1/agreements/{id}/refunds/advance"

	// Terminations
	AgreementTerminations      = "/api/v1/agreements/{id}/terminations"
	AgreementTerminationAccept = "/api/v1/agreements/{id}/terminations/accept"
	TerminationsConfirm        = "/api/v1/terminations/confirm"
	TerminationsCancel         = "/api/v1/terminations/cancel"
	BreachResolve              = "/api/v1/breaches/{id}/resolve"

	// Admin
	AdminBreachReview = "/api/v1/admin/breaches/{id}/review"

	// In-app notifications for the caller
	Notifications = "/api/v1/notifications"
)
