package domain

import "errors"

var (
	ErrDocumentNotFound   = errors.New("intake document not found")
	ErrInvalidState       = errors.New("operation not allowed in current document state")
	ErrFileEmpty          = errors.New("file is empty")
	ErrFileTooLarge       = errors.New("file exceeds the configured size ceiling")
	ErrClassifierContract = errors.New("classifier returned confidence outside [0,1]")
)
