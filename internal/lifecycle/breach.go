package lifecycle

import "github.com/poofware/leasing-service/internal/models"

const (
	BreachRequireRemedy     Event = "require_remedy"
	BreachRecommendEviction Event = "recommend_eviction"
	BreachResolve           Event = "resolve"
	BreachCancel            Event = "cancel"
	BreachConfirmEviction   Event = "confirm_eviction"
)

var breachTable = table[models.BreachStatus]{
	models.BreachStatusWarning: {
		BreachRequireRemedy:     models.BreachStatusPendingRemedy,
		BreachRecommendEviction: models.BreachStatusEvictionRecommended,
		BreachResolve:           models.BreachStatusResolved,
		BreachCancel:            models.BreachStatusCancelled,
	},
	models.BreachStatusPendingRemedy: {
		BreachRecommendEviction: models.BreachStatusEvictionRecommended,
		BreachResolve:           models.BreachStatusResolved,
		BreachCancel:            models.BreachStatusCancelled,
	},
	models.BreachStatusEvictionRecommended: {
		BreachConfirmEviction: models.BreachStatusEvicted,
		BreachResolve:         models.BreachStatusResolved,
		BreachCancel:          models.BreachStatusCancelled,
	},
}

func BreachTransition(current models.BreachStatus, ev Event) (models.BreachStatus, error) {
	return breachTable.next("breach log", current, ev)
}

func CanBreach(current models.BreachStatus, ev Event) bool {
	return breachTable.can(current, ev)
}

// BreachReviewEvent maps an admin review outcome onto its event.
func BreachReviewEvent(outcome models.BreachStatus) (Event, bool) {
	switch outcome {
	case models.BreachStatusPendingRemedy:
		return BreachRequireRemedy, true
	case models.BreachStatusEvictionRecommended:
		return BreachRecommendEviction, true
	case models.BreachStatusResolved:
		return BreachResolve, true
	}
	return "", false
}
