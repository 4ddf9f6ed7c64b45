package models

import (
	"time"

	"github.com/google/uuid"
)

type OccupancyStatus string

const (
	OccupancyAvailable   OccupancyStatus = "available"
	OccupancyOccupied    OccupancyStatus = "occupied"
	OccupancyMaintenance OccupancyStatus = "maintenance"
)

type Property struct {
	Versioned

	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	HasUnits  bool            `json:"has_units"`
	Status    OccupancyStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (p *Property) GetID() string {
	return p.ID.String()
}
