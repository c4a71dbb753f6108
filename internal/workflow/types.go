package workflow

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/stages"
)

// State bag keys shared between workflow nodes.
const (
	KeySessionID  = "session_id"
	KeyEvidenceID = "evidence_id"
	KeyReviewer   = "reviewer_id"
	KeyText       = "text"
	KeySource     = "source"
	KeyWindow     = "window"
	KeyDate       = "date_decided"
	KeySummary    = "summary_decided"
	KeyCandidates = "candidate_proposal"
	KeySelection  = "selection_decided"
	KeyResult     = "result"
)

// Request carries the inputs for one unattended classification run.
// Window is optional; without it the date guard reports unknown and the
// run continues. ReviewerID is recorded on every auto-approved step.
type Request struct {
	EvidenceID *uuid.UUID         `json:"evidence_id,omitempty"`
	Text       string             `json:"text"`
	Source     string             `json:"source"`
	Window     *stages.DateWindow `json:"window,omitempty"`
	ReviewerID *string            `json:"reviewer_id,omitempty"`
}

// Result is the final output of an unattended classification run. The
// full decision trail remains queryable through the session summary.
type Result struct {
	SessionID      uuid.UUID       `json:"session_id"`
	EvidenceID     *uuid.UUID      `json:"evidence_id,omitempty"`
	Classification json.RawMessage `json:"classification"`
	Summary        string          `json:"summary"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// dateDecided mirrors the decided fields of the date stage.
type dateDecided struct {
	EvidenceDate *string `json:"evidence_date"`
	Status       string  `json:"status"`
}

// summaryDecided mirrors the decided fields of the action_describer stage.
type summaryDecided struct {
	ActionsSummary string `json:"actions_summary"`
}

// finalizeDecided mirrors the decided fields of the terminal stage.
type finalizeDecided struct {
	Classification json.RawMessage `json:"classification"`
	Summary        string          `json:"summary"`
}
