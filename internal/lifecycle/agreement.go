package lifecycle

import "github.com/poofware/leasing-service/internal/models"

const (
	AgreementMarkReady    Event = "mark_ready"
	AgreementTenantAccept Event = "tenant_accept"
	AgreementActivate     Event = "activate"
	AgreementTerminate    Event = "terminate"
	AgreementCancel       Event = "cancel"
	AgreementComplete     Event = "complete"
)

var agreementTable = table[models.AgreementStatus]{
	models.AgreementStatusDraft: {
		AgreementMarkReady: models.AgreementStatusReady,
		AgreementCancel:    models.AgreementStatusCancelled,
	},
	models.AgreementStatusReady: {
		AgreementTenantAccept: models.AgreementStatusPendingPayment,
		AgreementCancel:       models.AgreementStatusCancelled,
	},
	models.AgreementStatusPendingPayment: {
		AgreementActivate: models.AgreementStatusActive,
		AgreementCancel:   models.AgreementStatusCancelled,
	},
	models.AgreementStatusActive: {
		AgreementTerminate: models.AgreementStatusTerminated,
		AgreementComplete:  models.AgreementStatusCompleted,
	},
}

// AgreementTransition returns the status reached by applying ev to current.
func AgreementTransition(current models.AgreementStatus, ev Event) (models.AgreementStatus, error) {
	return agreementTable.next("agreement", current, ev)
}

func CanAgreement(current models.AgreementStatus, ev Event) bool {
	return agreementTable.can(current, ev)
}

// CanAttachTenant reports whether a tenant may be (re)assigned in this status.
func CanAttachTenant(s models.AgreementStatus) bool {
	return s == models.AgreementStatusDraft || s == models.AgreementStatusReady
}
