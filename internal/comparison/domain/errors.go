package domain

import "errors"

var (
	ErrComparisonNotFound      = errors.New("comparison not found")
	ErrUnknownConflictField    = errors.New("resolution references a field that is not a conflict")
	ErrDuplicateResolution     = errors.New("multiple resolutions for the same field")
	ErrInvalidResolutionAction = errors.New("invalid resolution action")
	ErrComparisonNotResolvable = errors.New("comparison is not bound to a submission")
)
