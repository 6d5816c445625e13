package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a structured error response from the neighborrank API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("neighborrank: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("neighborrank: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func hasStatus(err error, status int) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == status
}

// IsNotFound reports a 404, returned for unknown source vertices and labels.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsValidation reports a 400 validation_error.
func IsValidation(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusBadRequest && e.Code == "validation_error"
}

// IsTimeout reports a 504 from a rank run that hit the server deadline.
func IsTimeout(err error) bool { return hasStatus(err, http.StatusGatewayTimeout) }

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
