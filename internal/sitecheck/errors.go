package sitecheck

import "errors"

var (
	ErrInvalidBaseURL = errors.New("invalid base URL")
	ErrUnhealthy      = errors.New("service health check failed")
	ErrPagesFailed    = errors.New("site check found failing pages")
)
