package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/dtos"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/utils"
)

// PaymentsController serves rent payments and the refunds that clear the
// termination refund gate.
type PaymentsController struct {
	payments *services.PaymentService
	refunds  *services.RefundService
	validate *validator.Validate
}

func NewPaymentsController(p *services.PaymentService, rf *services.RefundService) *PaymentsController {
	return &PaymentsController{payments: p, refunds: rf, validate: validator.New()}
}

// POST /api/v1/agreements/{id}/payments/initial
func (c *PaymentsController) InitialPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "InitialPaymentHandler")

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
	if role != models.RoleTenant {
		utils.HandleAppError(w, utils.NewForbiddenError(utils.ErrRoleNotAllowed, "only the tenant may make the initial payment"))
		return
	}

	var req dtos.PaymentRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	res, err := c.payments.RecordInitialPayment(r.Context(), services.InitialPaymentInput{
		AgreementID: id,
		TenantID:    callerID,
		AmountCents: amount,
		Method:      models.PaymentMethod(req.Method),
		Notes:       req.Notes,
	})
	if err != nil {
		logger.WithError(err).WithField("agreementID", id).Warn("Initial payment rejected")
		utils.HandleAppError(w, err)
		return
	}

	resp := dtos.InitialPaymentResponse{
		AgreementStatus: res.AgreementStatus,
		Obligation:      dtos.NewObligationResponse(res.Obligation),
		Deposit:         dtos.NewDepositResponse(res.Deposit),
		Advances:        dtos.NewObligationResponses(res.Advances),
	}
	if res.Partial != nil {
		p := dtos.NewObligationResponse(res.Partial)
		resp.Partial = &p
	}
	logger.WithFields(logrus.Fields{"agreementID": id, "amount": req.Amount}).Info("Initial payment recorded")
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// POST /api/v1/agreements/{id}/payments
func (c *PaymentsController) PaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "PaymentHandler")

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

	var req dtos.PaymentRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	res, err := c.payments.RecordPayment(r.Context(), services.PaymentInput{
		AgreementID: id,
		CallerID:    callerID,
		CallerRole:  role,
		AmountCents: amount,
		Method:      models.PaymentMethod(req.Method),
		Notes:       req.Notes,
	})
	if err != nil {
		logger.WithError(err).WithField("agreementID", id).Warn("Payment rejected")
		utils.HandleAppError(w, err)
		return
	}
	logger.WithFields(logrus.Fields{"agreementID": id, "status": res.Status}).Info("Payment recorded")
	utils.RespondWithJSON(w, http.StatusCreated, dtos.PaymentResponse{
		Status:                 string(res.Status),
		TransactionID:          res.TransactionID,
		AllocatedObligationIDs: res.AllocatedObligationIDs,
		CreatedObligationIDs:   res.CreatedObligationIDs,
		RemainingBalance:       utils.FormatCents(res.RemainingBalanceCents),
	})
}

// POST /api/v1/agreements/{id}/refunds/deposit
func (c *PaymentsController) RefundDepositHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "RefundDepositHandler")

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

	var req dtos.DepositRefundRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	var amount int64
	if req.Amount != nil {
		if amount, err = parseAmount("amount", *req.Amount); err != nil {
			utils.HandleAppError(w, err)
			return
		}
	}

	dep, err := c.refunds.RefundDeposit(r.Context(), services.RefundDepositInput{
		AgreementID: id,
		LandlordID:  callerID,
		Role:        role,
		AmountCents: amount,
	})
	if err != nil {
		logger.WithError(err).WithField("agreementID", id).Warn("Deposit refund rejected")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewDepositResponse(dep))
}

// POST /api/v1/agreements/{id}/refunds/advance
func (c *PaymentsController) RefundAdvanceHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "RefundAdvanceHandler")

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

	res, err := c.refunds.RefundAdvanceRent(r.Context(), id, callerID, role)
	if err != nil {
		logger.WithError(err).WithField("agreementID", id).Warn("Advance refund rejected")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.AdvanceRefundResponse{
		AgreementID:         res.AgreementID,
		RefundedObligations: res.RefundedObligations,
		Refunded:            utils.FormatCents(res.RefundedCents),
	})
}
