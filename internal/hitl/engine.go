// Package hitl implements the staged review engine: a deterministic
// state machine that sequences the proposal pipeline, captures human
// decisions, and persists the immutable audit trail. It is the only
// entry point into session mutation.
package hitl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/ledger"
	"github.com/cairnhq/cairn/internal/merge"
	"github.com/cairnhq/cairn/internal/propose"
	"github.com/cairnhq/cairn/internal/sessions"
	"github.com/cairnhq/cairn/internal/stages"
	"github.com/cairnhq/cairn/pkg/pagination"
)

// Proposer generates stage proposals. Implemented by propose.Generator.
type Proposer interface {
	Generate(ctx context.Context, stage stages.Stage, input json.RawMessage) (*propose.Result, error)
}

// ClassificationRecorder receives the decided classification once the
// terminal stage is approved. Implemented by the evidence system.
type ClassificationRecorder interface {
	RecordClassification(ctx context.Context, evidenceID uuid.UUID, classification json.RawMessage) error
}

// ApplyCommand carries one stage decision: the proposal being reviewed
// and the human response to it.
type ApplyCommand struct {
	SessionID uuid.UUID        `json:"session_id"`
	Stage     stages.Stage     `json:"stage"`
	Proposal  json.RawMessage  `json:"model_output"`
	Human     merge.HumanInput `json:"human_input"`
}

// Decision is the outcome of an applied stage decision. Replayed is
// true when the command matched an already-recorded decision and no
// state changed.
type Decision struct {
	Session       *sessions.Session `json:"session"`
	Step          *ledger.Step      `json:"step"`
	DecidedOutput json.RawMessage   `json:"decided_output"`
	Replayed      bool              `json:"replayed,omitempty"`
}

// Summary is the full audit view of a session: every decided step plus
// the final classification when the terminal stage has been decided.
type Summary struct {
	Session        *sessions.Session `json:"session"`
	Steps          []ledger.Step     `json:"steps"`
	Classification json.RawMessage   `json:"classification,omitempty"`
}

// System defines the public contract of the review engine.
type System interface {
	Handler() *Handler

	Start(ctx context.Context, cmd sessions.StartCommand) (*sessions.Session, error)
	Find(ctx context.Context, id uuid.UUID) (*sessions.Session, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters sessions.Filters,
	) (*pagination.PageResult[sessions.Session], error)

	RunStage(ctx context.Context, id uuid.UUID, stage stages.Stage, input json.RawMessage) (*propose.Result, error)
	ApplyEdits(ctx context.Context, cmd ApplyCommand) (*Decision, error)
	Summarize(ctx context.Context, id uuid.UUID) (*Summary, error)
}

// Engine composes session storage, the decision ledger, and the
// proposal generator into the four review operations.
type Engine struct {
	sessions   sessions.System
	ledger     ledger.System
	propose    Proposer
	recorder   ClassificationRecorder
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the review engine. recorder may be nil when no evidence
// write-back is wired.
func New(
	sessions sessions.System,
	ledger ledger.System,
	proposer Proposer,
	recorder ClassificationRecorder,
	logger *slog.Logger,
	pagination pagination.Config,
) *Engine {
	return &Engine{
		sessions:   sessions,
		ledger:     ledger,
		propose:    proposer,
		recorder:   recorder,
		logger:     logger.With("system", "hitl"),
		pagination: pagination,
	}
}

func (e *Engine) Handler() *Handler {
	return NewHandler(e, e.logger, e.pagination)
}

// Start creates a session positioned at the first pipeline stage.
func (e *Engine) Start(ctx context.Context, cmd sessions.StartCommand) (*sessions.Session, error) {
	return e.sessions.Create(ctx, cmd)
}

func (e *Engine) Find(ctx context.Context, id uuid.UUID) (*sessions.Session, error) {
	return e.sessions.Find(ctx, id)
}

func (e *Engine) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters sessions.Filters,
) (*pagination.PageResult[sessions.Session], error) {
	return e.sessions.List(ctx, page, filters)
}

// RunStage generates a proposal for the session's current stage. It
// never mutates session state, so callers may retry freely.
func (e *Engine) RunStage(
	ctx context.Context,
	id uuid.UUID,
	stage stages.Stage,
	input json.RawMessage,
) (*propose.Result, error) {
	if _, err := stages.ContractFor(stage); err != nil {
		return nil, err
	}

	s, err := e.sessions.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != sessions.StatusActive {
		return nil, fmt.Errorf("%w: status %s", sessions.ErrNotActive, s.Status)
	}
	if s.CurrentStage != stage {
		return nil, fmt.Errorf("%w: session at %s, got %s", sessions.ErrStaleStage, s.CurrentStage, stage)
	}

	return e.propose.Generate(ctx, stage, input)
}

// ApplyEdits merges the proposal with the human response, appends the
// ledger step, and advances the session as one logical unit. An exact
// duplicate of an already-applied decision is acknowledged without
// mutation so client retries are safe.
func (e *Engine) ApplyEdits(ctx context.Context, cmd ApplyCommand) (*Decision, error) {
	contract, err := stages.ContractFor(cmd.Stage)
	if err != nil {
		return nil, err
	}

	decided, err := merge.Apply(contract, cmd.Proposal, cmd.Human)
	if err != nil {
		return nil, err
	}

	humanJSON, err := json.Marshal(cmd.Human)
	if err != nil {
		return nil, fmt.Errorf("encode human input: %w", err)
	}

	advance := sessions.AdvanceCommand{
		SessionID:    cmd.SessionID,
		Stage:        cmd.Stage,
		LatestResult: decided,
		Step: ledger.AppendCommand{
			SessionID:     cmd.SessionID,
			Stage:         cmd.Stage,
			ModelOutput:   cmd.Proposal,
			HumanInput:    humanJSON,
			DecidedOutput: decided,
			ReviewerID:    cmd.Human.ReviewerID,
		},
	}
	if next, ok := stages.Next(cmd.Stage); ok {
		advance.NextStage = &next
	}

	s, step, err := e.sessions.Advance(ctx, advance)
	if err != nil {
		if replay, ok := e.replayDecision(ctx, cmd, decided); ok {
			return replay, nil
		}
		return nil, err
	}

	d := &Decision{
		Session:       s,
		Step:          step,
		DecidedOutput: decided,
	}

	if advance.NextStage == nil {
		if err := e.recordClassification(ctx, s, decided); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// replayDecision checks whether a failed advance was an exact duplicate
// of the recorded decision for that stage. Matching duplicates are
// acknowledged; anything else surfaces the original error.
func (e *Engine) replayDecision(ctx context.Context, cmd ApplyCommand, decided json.RawMessage) (*Decision, bool) {
	step, err := e.ledger.FindStep(ctx, cmd.SessionID, cmd.Stage)
	if err != nil {
		return nil, false
	}
	if !jsonEqual(step.DecidedOutput, decided) {
		return nil, false
	}

	s, err := e.sessions.Find(ctx, cmd.SessionID)
	if err != nil {
		return nil, false
	}

	// A replayed terminal decision still owes the evidence write-back:
	// the original attempt may have failed after the commit.
	if _, ok := stages.Next(cmd.Stage); !ok {
		if err := e.recordClassification(ctx, s, step.DecidedOutput); err != nil {
			return nil, false
		}
	}

	e.logger.Info("duplicate decision replayed",
		"session_id", cmd.SessionID,
		"stage", cmd.Stage,
	)
	return &Decision{
		Session:       s,
		Step:          step,
		DecidedOutput: step.DecidedOutput,
		Replayed:      true,
	}, true
}

// recordClassification pushes the decided classification to the linked
// evidence record after the terminal stage commits. Failures surface as
// ErrWritebackFailed; the session is already completed, so the caller
// retries through the idempotent duplicate path.
func (e *Engine) recordClassification(ctx context.Context, s *sessions.Session, decided json.RawMessage) error {
	if e.recorder == nil || s.EvidenceID == nil {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(decided, &fields); err != nil {
		return fmt.Errorf("%w: decode decided output: %w", ErrWritebackFailed, err)
	}
	classification, ok := fields["classification"]
	if !ok {
		return nil
	}

	if err := e.recorder.RecordClassification(ctx, *s.EvidenceID, classification); err != nil {
		return fmt.Errorf("%w: %w", ErrWritebackFailed, err)
	}

	e.logger.Info("classification recorded",
		"session_id", s.ID,
		"evidence_id", *s.EvidenceID,
	)
	return nil
}

// Summarize returns the session's full decision trail.
func (e *Engine) Summarize(ctx context.Context, id uuid.UUID) (*Summary, error) {
	s, err := e.sessions.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	steps, err := e.ledger.EntriesFor(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Session: s,
		Steps:   steps,
	}

	for _, step := range steps {
		if step.Stage != stages.Last() {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(step.DecidedOutput, &fields); err == nil {
			summary.Classification = fields["classification"]
		}
	}

	return summary, nil
}

func jsonEqual(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
