package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for leasing domain logic. Services wrap them in an
// AppError; controllers and tests can still match them with errors.Is.
var (
	ErrAgreementNotFound   = errors.New("agreement_not_found")
	ErrTenantNotFound      = errors.New("tenant_not_found")
	ErrUserNotFound        = errors.New("user_not_found")
	ErrEvictionLogNotFound = errors.New("eviction_log_not_found")
	ErrBreachLogNotFound   = errors.New("breach_log_not_found")
	ErrPropertyNotFound    = errors.New("property_not_found")
	ErrUnitNotFound        = errors.New("unit_not_found")

	ErrWrongStatus          = errors.New("wrong_status")
	ErrNotAgreementTenant   = errors.New("not_agreement_tenant")
	ErrNotAgreementOwner    = errors.New("not_agreement_owner")
	ErrRoleNotAllowed       = errors.New("role_not_allowed")
	ErrTenantNotAccepted    = errors.New("tenant_not_accepted")
	ErrInsufficientAmount   = errors.New("insufficient_amount")
	ErrInvalidRent          = errors.New("invalid_rent")
	ErrNotEligible          = errors.New("not_eligible_for_termination")
	ErrEvidenceRequired     = errors.New("evidence_required")
	ErrRefundRequired       = errors.New("refund_required")
	ErrGracePeriodActive    = errors.New("grace_period_active")
	ErrGracePeriodExpired   = errors.New("grace_period_expired")
	ErrBreachNotApproved    = errors.New("breach_not_approved")
	ErrAgreementUnavailable = errors.New("property_already_leased")
	ErrAllocationMismatch   = errors.New("allocation_mismatch")
	ErrGatewayDeclined      = errors.New("gateway_declined")
	ErrInvalidPayload       = errors.New("invalid_payload")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	ErrExternalServiceFailure = errors.New("external_service_failure")
	ErrNoRowsUpdated          = errors.New("no_rows_updated")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(sentinel error, entity string, id fmt.Stringer) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s %s not found", entity, id),
		Err:        sentinel,
	}
}

func NewUnauthorizedError(msg string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: msg}
}

// NewForbiddenError covers role, ownership and precondition failures.
func NewForbiddenError(sentinel error, msg string) *AppError {
	return &AppError{StatusCode: http.StatusForbidden, Code: ErrCodeForbidden, Message: msg, Err: sentinel}
}

func NewValidationError(field, msg string) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrCodeValidation,
		Message:    fmt.Sprintf("%s: %s", field, msg),
		Err:        ErrInvalidPayload,
	}
}

func NewConflictError(err error) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       ErrCodeRowVersionConflict,
		Message:    "The record was modified concurrently, please retry",
		Err:        err,
	}
}

func NewServerError(msg string, err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Code: ErrCodeInternal, Message: msg, Err: err}
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
