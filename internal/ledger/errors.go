package ledger

import (
	"errors"
	"net/http"
)

// Ledger errors. ErrDuplicate surfaces when a stage decision already
// exists for a session, which callers use for idempotent retry handling.
var (
	ErrNotFound  = errors.New("ledger entry not found")
	ErrDuplicate = errors.New("stage already decided")
)

// MapHTTPStatus maps ledger errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
