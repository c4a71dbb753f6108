package stages

import "errors"

// ErrUnknownStage indicates a stage value outside the fixed pipeline
// enumeration. It is never retryable; it signals a caller bug.
var ErrUnknownStage = errors.New("unknown stage")
