package domain

import "errors"

var (
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrVersionNotFound        = errors.New("version not found")
	ErrInvalidAction          = errors.New("invalid version action")
	ErrConcurrentModification = errors.New("submission was modified concurrently")
)
