package dtos

// ValidationErrorDetail is a DTO for structured validation error responses.
type ValidationErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}

// ConfirmationResponse is a simple success message with the affected ID.
type ConfirmationResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
