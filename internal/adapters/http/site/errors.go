package site

import "errors"

// Sentinel kinds for site errors.
var (
	ErrTemplate = errors.New("site template failed")
	ErrContent  = errors.New("site content failed")
)
