package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnsupportedElement = errors.New("unsupported element type")
	ErrInvalidElement     = errors.New("content/sourceUrl does not match element type")
	ErrInvalidContent     = errors.New("invalid text content")
	ErrNotReady           = errors.New("element data not ready")
	ErrInvalidBackground  = errors.New("invalid background")
)
