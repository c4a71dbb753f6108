package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/cairnhq/cairn/internal/hitl"
	"github.com/cairnhq/cairn/internal/merge"
	"github.com/cairnhq/cairn/internal/stages"
)

const autoReason = "auto-approved"

// IngestNode runs the ingest_text stage and carries the decided
// (possibly truncated) text forward for the remaining stages.
func IngestNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		text, err := stringValue(s, KeyText)
		if err != nil {
			return s, fmt.Errorf("ingest: %w", err)
		}
		source, _ := stringValue(s, KeySource)

		decided, err := runAndApply(ctx, rt, s, stages.StageIngestText,
			stages.IngestInput{Text: text, Source: source}, nil)
		if err != nil {
			return s, fmt.Errorf("ingest: %w", err)
		}

		var out struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(decided, &out); err != nil {
			return s, fmt.Errorf("ingest: %w: decode decided output: %w", ErrStageFailed, err)
		}

		s = s.Set(KeyText, out.Text)
		return s, nil
	})
}

// DateNode runs the date stage against the optional review window and
// records the decided date outcome for the terminal stage.
func DateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		text, err := stringValue(s, KeyText)
		if err != nil {
			return s, fmt.Errorf("date: %w", err)
		}

		input := stages.DateInput{Text: text}
		if val, ok := s.Get(KeyWindow); ok {
			if window, ok := val.(*stages.DateWindow); ok {
				input.Window = window
			}
		}

		decided, err := runAndApply(ctx, rt, s, stages.StageDate, input, nil)
		if err != nil {
			return s, fmt.Errorf("date: %w", err)
		}

		var out dateDecided
		if err := json.Unmarshal(decided, &out); err != nil {
			return s, fmt.Errorf("date: %w: decode decided output: %w", ErrStageFailed, err)
		}

		rt.Logger.InfoContext(ctx, "date guard decided",
			"status", out.Status,
			"evidence_date", out.EvidenceDate,
		)

		s = s.Set(KeyDate, out)
		return s, nil
	})
}

// DescribeNode runs the action_describer stage and records the decided
// summary.
func DescribeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		text, err := stringValue(s, KeyText)
		if err != nil {
			return s, fmt.Errorf("describe: %w", err)
		}

		decided, err := runAndApply(ctx, rt, s, stages.StageActionDescriber,
			stages.DescribeInput{Text: text}, nil)
		if err != nil {
			return s, fmt.Errorf("describe: %w", err)
		}

		var out summaryDecided
		if err := json.Unmarshal(decided, &out); err != nil {
			return s, fmt.Errorf("describe: %w: decode decided output: %w", ErrStageFailed, err)
		}

		s = s.Set(KeySummary, out)
		return s, nil
	})
}

// CandidatesNode generates the ranked candidate proposal. The decision
// is deferred to the select or assign node so the selection strategy can
// branch on assistant availability.
func CandidatesNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		input, err := candidatesInput(s)
		if err != nil {
			return s, fmt.Errorf("candidates: %w", err)
		}

		sessionID, err := sessionID(s)
		if err != nil {
			return s, fmt.Errorf("candidates: %w", err)
		}

		inputJSON, err := json.Marshal(input)
		if err != nil {
			return s, fmt.Errorf("candidates: %w: encode input: %w", ErrStageFailed, err)
		}

		result, err := rt.Engine.RunStage(ctx, sessionID, stages.StageControlCandidates, inputJSON)
		if err != nil {
			return s, fmt.Errorf("candidates: %w: %w", ErrStageFailed, err)
		}

		s = s.Set(KeyCandidates, result.Proposal)
		return s, nil
	})
}

// SelectNode applies the candidate decision with the top-ranked
// heuristic candidate as the selection.
func SelectNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		proposal, cands, err := candidateProposal(s)
		if err != nil {
			return s, fmt.Errorf("select: %w", err)
		}

		return applySelection(ctx, rt, s, proposal, cands[0])
	})
}

// AssignNode asks the assistant to pick the best candidate, falling
// back to the top-ranked one when the call fails. Assistant failures
// never abort an unattended run.
func AssignNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		proposal, cands, err := candidateProposal(s)
		if err != nil {
			return s, fmt.Errorf("assign: %w", err)
		}

		text, err := stringValue(s, KeyText)
		if err != nil {
			return s, fmt.Errorf("assign: %w", err)
		}

		selection := cands[0]
		if chosen, err := rt.Assistant.Assign(ctx, text, cands); err != nil {
			rt.Logger.WarnContext(ctx, "assistant assignment failed, using top candidate",
				"error", err,
			)
		} else {
			selection = *chosen
		}

		return applySelection(ctx, rt, s, proposal, selection)
	})
}

// FinalizeNode assembles the terminal stage input from the decided
// outputs of prior stages and applies the final decision.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		input := stages.FinalizeInput{}

		if val, ok := s.Get(KeyDate); ok {
			if date, ok := val.(dateDecided); ok {
				input.EvidenceDate = date.EvidenceDate
			}
		}
		if val, ok := s.Get(KeySummary); ok {
			if summary, ok := val.(summaryDecided); ok {
				input.ActionsSummary = summary.ActionsSummary
			}
		}
		if val, ok := s.Get(KeySelection); ok {
			if selection, ok := val.(stages.Candidate); ok {
				input.Selection = &selection
			}
		}

		decided, err := runAndApply(ctx, rt, s, stages.StageFinalizeClassification, input, nil)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		var out finalizeDecided
		if err := json.Unmarshal(decided, &out); err != nil {
			return s, fmt.Errorf("finalize: %w: decode decided output: %w", ErrStageFailed, err)
		}

		s = s.Set(KeyResult, out)
		return s, nil
	})
}

func runAndApply(
	ctx context.Context,
	rt *Runtime,
	s state.State,
	stage stages.Stage,
	input any,
	edits map[string]json.RawMessage,
) (json.RawMessage, error) {
	id, err := sessionID(s)
	if err != nil {
		return nil, err
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("%w: encode input: %w", ErrStageFailed, err)
	}

	result, err := rt.Engine.RunStage(ctx, id, stage, inputJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStageFailed, err)
	}

	d, err := rt.Engine.ApplyEdits(ctx, hitl.ApplyCommand{
		SessionID: id,
		Stage:     stage,
		Proposal:  result.Proposal,
		Human: merge.HumanInput{
			Approved:   true,
			Edits:      edits,
			Reason:     autoReason,
			ReviewerID: reviewer(s),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStageFailed, err)
	}

	return d.DecidedOutput, nil
}

func applySelection(
	ctx context.Context,
	rt *Runtime,
	s state.State,
	proposal json.RawMessage,
	selection stages.Candidate,
) (state.State, error) {
	id, err := sessionID(s)
	if err != nil {
		return s, fmt.Errorf("apply selection: %w", err)
	}

	selectionJSON, err := json.Marshal(selection)
	if err != nil {
		return s, fmt.Errorf("apply selection: %w: encode selection: %w", ErrStageFailed, err)
	}

	_, err = rt.Engine.ApplyEdits(ctx, hitl.ApplyCommand{
		SessionID: id,
		Stage:     stages.StageControlCandidates,
		Proposal:  proposal,
		Human: merge.HumanInput{
			Approved:   true,
			Edits:      map[string]json.RawMessage{"selection": selectionJSON},
			Reason:     autoReason,
			ReviewerID: reviewer(s),
		},
	})
	if err != nil {
		return s, fmt.Errorf("apply selection: %w: %w", ErrStageFailed, err)
	}

	rt.Logger.InfoContext(ctx, "control selected",
		"control_id", selection.ID,
		"confidence", selection.Confidence,
	)

	s = s.Set(KeySelection, selection)
	return s, nil
}

func candidatesInput(s state.State) (stages.CandidatesInput, error) {
	text, err := stringValue(s, KeyText)
	if err != nil {
		return stages.CandidatesInput{}, err
	}

	input := stages.CandidatesInput{Text: text}
	if val, ok := s.Get(KeySummary); ok {
		if summary, ok := val.(summaryDecided); ok {
			input.ActionsSummary = summary.ActionsSummary
		}
	}
	return input, nil
}

// candidateProposal decodes the stored candidate proposal. The ranking
// always yields at least the general fallback candidate, so an empty
// list is a state error.
func candidateProposal(s state.State) (json.RawMessage, []stages.Candidate, error) {
	val, ok := s.Get(KeyCandidates)
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %s in state", ErrStateMissing, KeyCandidates)
	}

	proposal, ok := val.(json.RawMessage)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s is not json.RawMessage", ErrStateMissing, KeyCandidates)
	}

	var parsed stages.CandidatesProposal
	if err := json.Unmarshal(proposal, &parsed); err != nil {
		return nil, nil, fmt.Errorf("%w: decode candidate proposal: %w", ErrStageFailed, err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: candidate proposal is empty", ErrStateMissing)
	}

	return proposal, parsed.Candidates, nil
}

func sessionID(s state.State) (uuid.UUID, error) {
	val, ok := s.Get(KeySessionID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing %s in state", ErrStateMissing, KeySessionID)
	}

	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s is not uuid.UUID", ErrStateMissing, KeySessionID)
	}

	return id, nil
}

func reviewer(s state.State) *string {
	val, ok := s.Get(KeyReviewer)
	if !ok {
		return nil
	}
	id, ok := val.(string)
	if !ok {
		return nil
	}
	return &id
}

func stringValue(s state.State, key string) (string, error) {
	val, ok := s.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: missing %s in state", ErrStateMissing, key)
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not string", ErrStateMissing, key)
	}

	return str, nil
}
