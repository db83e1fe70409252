package utils

import "net/http"

// APIError is a typed handler failure carrying the HTTP status that the
// error-handling middleware translates into the wire envelope. Handlers
// raise these; only the middleware writes error responses.
type APIError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(status int, message string) *APIError {
	return &APIError{StatusCode: status, Message: message, Errors: []string{}}
}

func NewValidationError(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message)
}

func NewConflictError(message string) *APIError {
	return NewAPIError(http.StatusConflict, message)
}

func NewNotFoundError(message string) *APIError {
	return NewAPIError(http.StatusNotFound, message)
}

func NewInvalidCredentialsError(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, message)
}

func NewUnauthorizedError(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, message)
}

// NewUploadError covers a missing required asset or a failed external
// upload; both surface as a 400 to the client.
func NewUploadError(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message)
}

func NewInternalError(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message)
}
