package propose

import "errors"

// Proposal generation errors.
var (
	ErrInvalidInput      = errors.New("invalid stage input")
	ErrAssistUnavailable = errors.New("assistant unavailable")
	ErrAssistTimeout     = errors.New("assistant timed out")
)
