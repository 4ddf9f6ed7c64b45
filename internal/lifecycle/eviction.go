package lifecycle

import "github.com/poofware/leasing-service/internal/models"

const (
	EvictionCancel   Event = "cancel"
	EvictionFinalize Event = "finalize"
)

var evictionTable = table[models.EvictionStatus]{
	models.EvictionStatusWarning: {
		EvictionCancel:   models.EvictionStatusCancelled,
		EvictionFinalize: models.EvictionStatusEvicted,
	},
}

func EvictionTransition(current models.EvictionStatus, ev Event) (models.EvictionStatus, error) {
	return evictionTable.next("eviction log", current, ev)
}

func CanEviction(current models.EvictionStatus, ev Event) bool {
	return evictionTable.can(current, ev)
}
