package bloom

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when the model API key is missing.
	ErrNoAPIKey = errors.New("bloom: API key required")

	// ErrEmptyResponse is returned when the model answered without text.
	ErrEmptyResponse = errors.New("bloom: empty model response")

	// ErrInvalidFlower is returned when the response holds no usable flower.
	ErrInvalidFlower = errors.New("bloom: invalid flower description")

	// ErrEmptyPhrase is returned when there is nothing to generate from.
	ErrEmptyPhrase = errors.New("bloom: empty phrase")
)

// APIError represents an error response from the model API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("bloom: API error %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsRetryable returns true if the request may succeed when repeated.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || (e.StatusCode >= 500 && e.StatusCode < 600)
}
