package controllers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/dtos"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/utils"
)

type AgreementsController struct {
	agreements *services.AgreementService
	validate   *validator.Validate
}

func NewAgreementsController(s *services.AgreementService) *AgreementsController {
	return &AgreementsController{agreements: s, validate: validator.New()}
}

// POST /api/v1/agreements
func (c *AgreementsController) CreateAgreementHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "CreateAgreementHandler")

	callerID, role, err := callerFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	var req dtos.CreateAgreementRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	rent, err := parseAmount("monthly_rent", req.MonthlyRent)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var deposit int64
	if req.SecurityDeposit != nil {
		if deposit, err = utils.ParseNonNegativeAmountToCents(*req.SecurityDeposit); err != nil {
			utils.HandleAppError(w, utils.NewValidationError("security_deposit", "must be a non-negative amount with at most two decimal places"))
			return
		}
	}

	a, err := c.agreements.CreateAgreement(r.Context(), services.CreateAgreementInput{
		OwnerID:              callerID,
		OwnerRole:            role,
		PropertyID:           req.PropertyID,
		UnitID:               req.UnitID,
		TenantID:             req.TenantID,
		MonthlyRentCents:     rent,
		SecurityDepositCents: deposit,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
	})
	if err != nil {
		logger.WithError(err).Error("Service call failed")
		utils.HandleAppError(w, err)
		return
	}
	logger.WithField("agreementID", a.ID).Info("Rental agreement created")
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewAgreementResponse(a))
}

// GET /api/v1/agreements/{id}
func (c *AgreementsController) GetAgreementHandler(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, "GetAgreementHandler", func(ctx context.Context, id, callerID uuid.UUID, role models.Role) (*models.RentalAgreement, error) {
		return c.agreements.GetAgreement(ctx, id, callerID, role)
	})
}

// POST /api/v1/agreements/{id}/tenant
func (c *AgreementsController) AssignTenantHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.AssignTenantRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	c.handle(w, r, "AssignTenantHandler", func(ctx context.Context, id, callerID uuid.UUID, role models.Role) (*models.RentalAgreement, error) {
		return c.agreements.AssignTenant(ctx, id, callerID, role, req.TenantID)
	})
}

// POST /api/v1/agreements/{id}/ready
func (c *AgreementsController) MarkReadyHandler(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, "MarkReadyHandler", c.agreements.MarkReady)
}

// POST /api/v1/agreements/{id}/accept
func (c *AgreementsController) AcceptAgreementHandler(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, "AcceptAgreementHandler", func(ctx context.Context, id, callerID uuid.UUID, role models.Role) (*models.RentalAgreement, error) {
		if role != models.RoleTenant {
			return nil, utils.NewForbiddenError(utils.ErrRoleNotAllowed, "only the tenant may accept a rental agreement")
		}
		return c.agreements.AcceptAgreement(ctx, id, callerID)
	})
}

// POST /api/v1/agreements/{id}/cancel
func (c *AgreementsController) CancelAgreementHandler(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, "CancelAgreementHandler", c.agreements.CancelAgreement)
}

// handle runs fn against the {id} agreement as the authenticated caller.
func (c *AgreementsController) handle(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	fn func(ctx context.Context, id, callerID uuid.UUID, role models.Role) (*models.RentalAgreement, error),
) {
	logger := utils.Logger.WithField("handler", name)

	callerID, role, err := callerFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	a, err := fn(r.Context(), id, callerID, role)
	if err != nil {
		logger.WithError(err).WithField("agreementID", id).Warn("Service call failed")
		utils.HandleAppError(w, err)
		return
	}
	logger.WithFields(logrus.Fields{"agreementID": id, "status": a.Status}).Info("Service call successful")
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewAgreementResponse(a))
}
