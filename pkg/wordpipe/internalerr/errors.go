package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnknownLanguage   = errors.New("unknown language")
	ErrTaggerUnavailable = errors.New("no tagger available")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
