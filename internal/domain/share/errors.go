package share

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for share lookups.
var (
	ErrMissingID       = errors.New("missing share id")
	ErrInvalidID       = errors.New("invalid share id")
	ErrInvalidResponse = errors.New("invalid API response format")
	ErrExpired         = errors.New("share link expired")
)

// UpstreamError carries an error message reported by the remote API.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return "upstream error: " + e.Message
}
