package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleLandlord Role = "landlord"
	RoleTenant   Role = "tenant"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleLandlord || r == RoleTenant || r == RoleAdmin
}

// User is the minimal profile the leasing flows need to notify people.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
