// Package sessions implements review session storage: the stage pointer
// and status for one evidence item under review. Stage advancement and
// the ledger append happen in a single transaction so the audit trail
// and session pointer never diverge.
package sessions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/ledger"
	"github.com/cairnhq/cairn/internal/stages"
)

// Status is the lifecycle state of a review session. Completed and
// error are terminal: no further transitions are accepted.
type Status string

// Session lifecycle states.
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Session tracks the staged review of one evidence item. CurrentStage
// is the stage awaiting a decision; after completion it retains the
// terminal stage value. LatestResult caches the most recent decided
// output for quick display.
type Session struct {
	ID           uuid.UUID       `json:"id"`
	EvidenceID   *uuid.UUID      `json:"evidence_id"`
	CurrentStage stages.Stage    `json:"current_stage"`
	Status       Status          `json:"status"`
	LatestResult json.RawMessage `json:"latest_result,omitempty"`
	ErrorReason  *string         `json:"error_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StartCommand carries the optional evidence link for a new session.
type StartCommand struct {
	EvidenceID *uuid.UUID `json:"evidence_id,omitempty"`
}

// AdvanceCommand performs one approved stage transition: append the
// ledger step, move the stage pointer, and refresh the cached result,
// all atomically. Stage must match the session's current stage. A nil
// NextStage marks the session completed.
type AdvanceCommand struct {
	SessionID    uuid.UUID
	Stage        stages.Stage
	NextStage    *stages.Stage
	LatestResult json.RawMessage
	Step         ledger.AppendCommand
}
