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

type TerminationsController struct {
	terminations *services.TerminationService
	validate     *validator.Validate
}

func NewTerminationsController(s *services.TerminationService) *TerminationsController {
	return &TerminationsController{terminations: s, validate: validator.New()}
}

// POST /api/v1/agreements/{id}/terminations
func (c *TerminationsController) InitiateTerminationHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "InitiateTerminationHandler")

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

	var req dtos.InitiateTerminationRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	in := services.TerminationInput{
		AgreementID:   id,
		InitiatorID:   callerID,
		InitiatorRole: role,
		Reason:        models.TerminationReason(req.Reason),
		Description:   req.Description,
		GraceDays:     req.GraceDays,
	}
	if req.EvidenceFileName != "" || req.EvidenceFileURL != "" {
		in.Evidence = &services.EvidenceFile{Name: req.EvidenceFileName, URL: req.EvidenceFileURL}
	}

	res, err := c.terminations.InitiateTermination(r.Context(), in)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"agreementID": id, "reason": req.Reason}).Warn("Termination rejected")
		utils.HandleAppError(w, err)
		return
	}
	logger.WithFields(logrus.Fields{"agreementID": id, "reason": req.Reason}).Info("Termination initiated")
	utils.RespondWithJSON(w, http.StatusCreated, res)
}

// POST /api/v1/agreements/{id}/terminations/accept
func (c *TerminationsController) AcceptMutualTerminationHandler(w http.ResponseWriter, r *http.Request) {
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
	res, err := c.terminations.AcceptMutualTermination(r.Context(), id, callerID, role)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// POST /api/v1/terminations/confirm
func (c *TerminationsController) ConfirmEvictionHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "ConfirmEvictionHandler")

	callerID, role, err := callerFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.TerminationRefRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	ref := services.TerminationRef{Kind: services.TerminationRefKind(req.Kind), ID: req.ID}
	res, err := c.terminations.ConfirmEviction(r.Context(), ref, callerID, role)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"kind": req.Kind, "id": req.ID}).Warn("Eviction confirmation rejected")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// POST /api/v1/terminations/cancel
func (c *TerminationsController) CancelTerminationHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "CancelTerminationHandler")

	callerID, role, err := callerFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.TerminationRefRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	ref := services.TerminationRef{Kind: services.TerminationRefKind(req.Kind), ID: req.ID}
	res, err := c.terminations.CancelTermination(r.Context(), ref, callerID, role, req.Reason)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"kind": req.Kind, "id": req.ID}).Warn("Cancellation rejected")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// POST /api/v1/admin/breaches/{id}/review
func (c *TerminationsController) ReviewBreachHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "ReviewBreachHandler")

	adminID, role, err := callerFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.BreachReviewRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	b, err := c.terminations.ReviewBreach(r.Context(), services.BreachReviewInput{
		BreachLogID: id,
		AdminID:     adminID,
		AdminRole:   role,
		Outcome:     models.BreachStatus(req.Outcome),
		RemedyDays:  req.RemedyDays,
		Notes:       req.Notes,
	})
	if err != nil {
		logger.WithError(err).WithField("breachLogID", id).Warn("Breach review rejected")
		utils.HandleAppError(w, err)
		return
	}
	logger.WithFields(logrus.Fields{"breachLogID": id, "outcome": req.Outcome, "adminID": adminID}).Info("Breach reviewed")
	utils.RespondWithJSON(w, http.StatusOK, newBreachLogResponse(b))
}

// POST /api/v1/breaches/{id}/resolve
func (c *TerminationsController) ResolveBreachHandler(w http.ResponseWriter, r *http.Request) {
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
	b, err := c.terminations.ResolveBreach(r.Context(), id, callerID, role)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, newBreachLogResponse(b))
}

func newBreachLogResponse(b *models.BreachLog) dtos.BreachLogResponse {
	return dtos.BreachLogResponse{
		ID:             b.ID,
		AgreementID:    b.RentalAgreementID,
		Reason:         string(b.Reason),
		Status:         string(b.Status),
		RemedyDeadline: b.RemedyDeadline,
		ReviewedAt:     b.ReviewedAt,
		ResolvedAt:     b.ResolvedAt,
		AdminNotes:     b.AdminNotes,
	}
}
