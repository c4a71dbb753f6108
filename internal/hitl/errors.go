package hitl

import (
	"errors"
	"net/http"

	"github.com/cairnhq/cairn/internal/ledger"
	"github.com/cairnhq/cairn/internal/merge"
	"github.com/cairnhq/cairn/internal/propose"
	"github.com/cairnhq/cairn/internal/sessions"
	"github.com/cairnhq/cairn/internal/stages"
)

// ErrWritebackFailed reports that a terminal decision committed but the
// evidence write-back did not. Retrying the same apply-edits call
// completes the write-back through the duplicate replay path.
var ErrWritebackFailed = errors.New("classification write-back failed")

// MapHTTPStatus maps engine and composed domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrStaleStage),
		errors.Is(err, sessions.ErrNotActive),
		errors.Is(err, ledger.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, stages.ErrUnknownStage),
		errors.Is(err, merge.ErrNotApproved),
		errors.Is(err, merge.ErrIncompleteDecision),
		errors.Is(err, propose.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, propose.ErrAssistTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrWritebackFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps engine and composed domain errors to the stable codes
// used by the CLI bridge envelope.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, stages.ErrUnknownStage):
		return "invalid_stage"
	case errors.Is(err, sessions.ErrStaleStage):
		return "stale_stage"
	case errors.Is(err, sessions.ErrNotActive):
		return "session_not_active"
	case errors.Is(err, sessions.ErrNotFound):
		return "session_not_found"
	case errors.Is(err, merge.ErrNotApproved):
		return "not_approved"
	case errors.Is(err, merge.ErrIncompleteDecision):
		return "incomplete_decision"
	case errors.Is(err, ledger.ErrDuplicate):
		return "stage_already_decided"
	case errors.Is(err, propose.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, propose.ErrAssistTimeout):
		return "assist_timeout"
	case errors.Is(err, ErrWritebackFailed):
		return "writeback_failed"
	default:
		return "internal"
	}
}
