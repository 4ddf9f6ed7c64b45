package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/poofware/leasing-service/internal/dtos"
	"github.com/poofware/leasing-service/internal/middleware"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/utils"
)

// formatValidationErrors converts validator errors into a user-friendly format.
func formatValidationErrors(errs validator.ValidationErrors) []dtos.ValidationErrorDetail {
	var details []dtos.ValidationErrorDetail
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", err.Field())
		case "url":
			message = fmt.Sprintf("Field '%s' must be a valid URL", err.Field())
		case "max":
			message = fmt.Sprintf("Field '%s' must not exceed %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("Field '%s' must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", err.Field(), err.Tag())
		}
		details = append(details, dtos.ValidationErrorDetail{
			Field:   err.Field(),
			Message: message,
			Code:    "validation_" + err.Tag(),
		})
	}
	return details
}

// decodeAndValidate reads a JSON body into req and runs struct validation.
// On failure it writes the response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return false
	}
	if err := v.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation,
				"Validation error", formatValidationErrors(validationErrs), err)
		} else {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		}
		return false
	}
	return true
}

func callerFromRequest(r *http.Request) (uuid.UUID, models.Role, error) {
	id, role, ok := middleware.Caller(r.Context())
	if !ok {
		return uuid.Nil, "", utils.NewUnauthorizedError("Missing userID in context")
	}
	return id, role, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, utils.NewValidationError("id", "must be a valid UUID")
	}
	return id, nil
}

func parseAmount(field, s string) (int64, error) {
	cents, err := utils.ParseAmountToCents(s)
	if err != nil {
		return 0, utils.NewValidationError(field, "must be a positive amount with at most two decimal places")
	}
	return cents, nil
}
