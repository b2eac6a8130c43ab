package domain

import "errors"

var (
	// ErrConfig reports unreadable or malformed configuration or watermark state.
	ErrConfig = errors.New("config error")
	// ErrAuth reports missing or rejected source credentials.
	ErrAuth = errors.New("authentication failed")
	// ErrFetch reports a failed source API call.
	ErrFetch = errors.New("fetch failed")
	// ErrWrite reports a failed destination document edit.
	ErrWrite = errors.New("document write failed")
	// ErrPersist reports a watermark that could not be saved.
	ErrPersist = errors.New("watermark persist failed")
)
