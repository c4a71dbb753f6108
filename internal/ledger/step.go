// Package ledger implements the append-only decision trail for review
// sessions. Every approved stage decision is recorded as a Step and
// never mutated or deleted afterward.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/stages"
)

// Step is one immutable ledger entry: the machine proposal, the human
// response, and the decided output for a stage of a session.
type Step struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Stage         stages.Stage    `json:"stage"`
	ModelOutput   json.RawMessage `json:"model_output"`
	HumanInput    json.RawMessage `json:"human_input"`
	DecidedOutput json.RawMessage `json:"decided_output"`
	ReviewerID    *string         `json:"reviewer_id"`
	DecidedAt     time.Time       `json:"decided_at"`
}

// AppendCommand carries the data for a new ledger entry.
type AppendCommand struct {
	SessionID     uuid.UUID
	Stage         stages.Stage
	ModelOutput   json.RawMessage
	HumanInput    json.RawMessage
	DecidedOutput json.RawMessage
	ReviewerID    *string
}
