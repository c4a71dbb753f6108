package sessions

import (
	"errors"
	"net/http"
)

// Session domain errors. ErrStaleStage guards the single-writer
// discipline: a decision for any stage other than the current one is
// rejected without touching the session or its ledger.
var (
	ErrNotFound   = errors.New("session not found")
	ErrDuplicate  = errors.New("session already exists")
	ErrStaleStage = errors.New("stage does not match session's current stage")
	ErrNotActive  = errors.New("session is not active")
)

// MapHTTPStatus maps session domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrStaleStage) || errors.Is(err, ErrNotActive) || errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
