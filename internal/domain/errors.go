package domain

import "errors"

var (
	ErrStateNotFound         = errors.New("state not found")
	ErrPausedWhileInactive   = errors.New("paused state requires active state")
	ErrNegativeTimeRemaining = errors.New("time remaining must not be negative")
	ErrInvalidInterval       = errors.New("interval minutes must be positive")
	ErrUnknownField          = errors.New("unknown state field")
	ErrInvalidFieldType      = errors.New("invalid state field type")
	ErrStorageUnavailable    = errors.New("storage unavailable")
)
