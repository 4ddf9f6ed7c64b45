package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/utils"
)

// CreateAgreementRequest amounts are decimal strings ("1250.00").
type CreateAgreementRequest struct {
	PropertyID      uuid.UUID  `json:"property_id" validate:"required"`
	UnitID          *uuid.UUID `json:"unit_id,omitempty"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty"`
	MonthlyRent     string     `json:"monthly_rent" validate:"required"`
	SecurityDeposit *string    `json:"security_deposit,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

type AssignTenantRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
}

// AgreementResponse mirrors models.RentalAgreement with money rendered as
// decimal strings.
type AgreementResponse struct {
	ID                          uuid.UUID                 `json:"id"`
	PropertyID                  uuid.UUID                 `json:"property_id"`
	UnitID                      *uuid.UUID                `json:"unit_id,omitempty"`
	OwnerID                     uuid.UUID                 `json:"owner_id"`
	TenantID                    *uuid.UUID                `json:"tenant_id,omitempty"`
	Status                      models.AgreementStatus    `json:"status"`
	MonthlyRent                 string                    `json:"monthly_rent"`
	SecurityDeposit             string                    `json:"security_deposit"`
	StartDate                   *time.Time                `json:"start_date,omitempty"`
	EndDate                     *time.Time                `json:"end_date,omitempty"`
	TenantAcceptedAgreement     bool                      `json:"tenant_accepted_agreement"`
	TerminationReason           *models.TerminationReason `json:"termination_reason,omitempty"`
	TerminationRequestedAt      *time.Time                `json:"termination_requested_at,omitempty"`
	TerminationEffectiveDate    *time.Time                `json:"termination_effective_date,omitempty"`
	LandlordAcceptedTermination bool                      `json:"landlord_accepted_termination"`
	TenantAcceptedTermination   bool                      `json:"tenant_accepted_termination"`
	RowVersion                  int64                     `json:"row_version"`
	UpdatedAt                   time.Time                 `json:"updated_at"`
}

func NewAgreementResponse(a *models.RentalAgreement) AgreementResponse {
	return AgreementResponse{
		ID:                          a.ID,
		PropertyID:                  a.PropertyID,
		UnitID:                      a.UnitID,
		OwnerID:                     a.OwnerID,
		TenantID:                    a.TenantID,
		Status:                      a.Status,
		MonthlyRent:                 utils.FormatCents(a.MonthlyRentCents),
		SecurityDeposit:             utils.FormatCents(a.SecurityDepositCents),
		StartDate:                   a.StartDate,
		EndDate:                     a.EndDate,
		TenantAcceptedAgreement:     a.TenantAcceptedAgreement,
		TerminationReason:           a.TerminationReason,
		TerminationRequestedAt:      a.TerminationRequestedAt,
		TerminationEffectiveDate:    a.TerminationEffectiveDate,
		LandlordAcceptedTermination: a.LandlordAcceptedTermination,
		TenantAcceptedTermination:   a.TenantAcceptedTermination,
		RowVersion:                  a.RowVersion,
		UpdatedAt:                   a.UpdatedAt,
	}
}
