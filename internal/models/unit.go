package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a leasable space inside a property.
type Unit struct {
	Versioned

	ID         uuid.UUID       `json:"id"`
	PropertyID uuid.UUID       `json:"property_id"`
	UnitNumber string          `json:"unit_number"`
	Status     OccupancyStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (u *Unit) GetID() string {
	return u.ID.String()
}
