package upstream

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/dingerzone/internal/domain/share"
)

// Sentinel kinds for remote API failures.
var (
	ErrNotConfigured  = errors.New("share API base URL not configured")
	ErrUnreachable    = errors.New("share API unreachable")
	ErrUpstreamStatus = errors.New("share API returned an error status")
)

// User-facing messages, most specific first.
const (
	MsgInvalidLink    = "Invalid share link"
	MsgNotConfigured  = "Configuration error: API URL not set. Please check environment variables."
	MsgUnreachable    = "Unable to reach the server. Please check your network or try again later."
	MsgExpired        = "This share link has expired."
	MsgFailed         = "Failed to load video. Please try again later."
	MsgPlaybackFailed = "Failed to play video. The video URL may be invalid or expired."
)

// Kind is a short, metrics-friendly classification of a lookup error.
type Kind string

// Error kinds.
const (
	KindNone            Kind = ""
	KindMissingID       Kind = "missing_id"
	KindInvalidID       Kind = "invalid_id"
	KindNotConfigured   Kind = "not_configured"
	KindUnreachable     Kind = "unreachable"
	KindUpstream        Kind = "upstream"
	KindExpired         Kind = "expired"
	KindInvalidResponse Kind = "invalid_response"
	KindCanceled        Kind = "canceled"
	KindUnknown         Kind = "unknown"
)

// Classify maps err to a Kind.
func Classify(err error) Kind {
	var upErr *share.UpstreamError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, share.ErrMissingID):
		return KindMissingID
	case errors.Is(err, share.ErrInvalidID):
		return KindInvalidID
	case errors.Is(err, ErrNotConfigured):
		return KindNotConfigured
	case errors.Is(err, share.ErrExpired):
		return KindExpired
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrUnreachable):
		return KindUnreachable
	case errors.As(err, &upErr), errors.Is(err, ErrUpstreamStatus):
		return KindUpstream
	case errors.Is(err, share.ErrInvalidResponse):
		return KindInvalidResponse
	default:
		return KindUnknown
	}
}

// UserMessage returns the text shown to visitors for err.
func UserMessage(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindMissingID, KindInvalidID:
		return MsgInvalidLink
	case KindNotConfigured:
		return MsgNotConfigured
	case KindUnreachable:
		return MsgUnreachable
	case KindExpired:
		return MsgExpired
	case KindUpstream:
		var upErr *share.UpstreamError
		if errors.As(err, &upErr) && strings.TrimSpace(upErr.Message) != "" {
			return upErr.Message
		}
		return MsgFailed
	default:
		return MsgFailed
	}
}

// HTTPStatus maps err to the status code of the page or API response.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case KindNone:
		return http.StatusOK
	case KindMissingID, KindInvalidID:
		return http.StatusBadRequest
	case KindNotConfigured:
		return http.StatusServiceUnavailable
	case KindExpired:
		return http.StatusGone
	case KindUpstream:
		var upErr *share.UpstreamError
		if errors.As(err, &upErr) {
			switch upErr.StatusCode {
			case http.StatusNotFound, http.StatusGone:
				return upErr.StatusCode
			}
		}
		return http.StatusBadGateway
	case KindCanceled:
		// Client went away; nginx's convention.
		return 499
	default:
		return http.StatusBadGateway
	}
}
