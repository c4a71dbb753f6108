// Package propose generates machine proposals for each review stage.
// Proposals are deterministic heuristics over the evidence text, optionally
// refined by an LLM assistant, and are always subject to human review
// before they become decided outputs.
package propose

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cairnhq/cairn/internal/controls"
	"github.com/cairnhq/cairn/internal/stages"
)

// SpecSource serves the control specification corpus used for candidate
// scoring. Implemented by the controls system.
type SpecSource interface {
	Specs(ctx context.Context) ([]controls.SpecEntry, error)
}

// Meta carries execution metadata for a generated proposal.
type Meta struct {
	ElapsedMS int64  `json:"elapsed_ms"`
	Model     string `json:"model,omitempty"`
}

// Result pairs a stage's machine proposal with its execution metadata.
// Proposal is the raw JSON form of the stage's typed proposal.
type Result struct {
	Stage    stages.Stage    `json:"stage"`
	Proposal json.RawMessage `json:"model_output"`
	Meta     Meta            `json:"meta"`
}

// Generator produces stage proposals. Specs is required for the
// control_candidates stage; Assist is optional and only refines the
// action_describer stage.
type Generator struct {
	specs  SpecSource
	assist *Assistant
	logger *slog.Logger
}

// New creates a Generator. assist may be nil to disable LLM refinement.
func New(specs SpecSource, assist *Assistant, logger *slog.Logger) *Generator {
	return &Generator{
		specs:  specs,
		assist: assist,
		logger: logger.With("system", "propose"),
	}
}

// Generate runs the proposal heuristic for the given stage against the
// raw stage input and returns the proposal with timing metadata.
func (g *Generator) Generate(
	ctx context.Context,
	stage stages.Stage,
	input json.RawMessage,
) (*Result, error) {
	started := time.Now()

	var (
		proposal any
		model    string
		err      error
	)

	switch stage {
	case stages.StageIngestText:
		var in stages.IngestInput
		if err = decodeInput(input, &in); err == nil {
			proposal = Ingest(in)
		}
	case stages.StageDate:
		var in stages.DateInput
		if err = decodeInput(input, &in); err == nil {
			proposal = ExtractDate(in)
		}
	case stages.StageActionDescriber:
		var in stages.DescribeInput
		if err = decodeInput(input, &in); err == nil {
			proposal, model = g.describe(ctx, in)
		}
	case stages.StageControlCandidates:
		var in stages.CandidatesInput
		if err = decodeInput(input, &in); err == nil {
			proposal, err = g.candidates(ctx, in)
		}
	case stages.StageFinalizeClassification:
		var in stages.FinalizeInput
		if err = decodeInput(input, &in); err == nil {
			proposal = Finalize(in)
		}
	default:
		return nil, fmt.Errorf("%w: %q", stages.ErrUnknownStage, stage)
	}

	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(proposal)
	if err != nil {
		return nil, fmt.Errorf("marshal %s proposal: %w", stage, err)
	}

	elapsed := time.Since(started).Milliseconds()
	g.logger.Debug("proposal generated",
		"stage", stage,
		"elapsed_ms", elapsed,
	)

	return &Result{
		Stage:    stage,
		Proposal: raw,
		Meta: Meta{
			ElapsedMS: elapsed,
			Model:     model,
		},
	}, nil
}

// describe prefers the LLM assistant when configured and falls back to
// the heuristic summary on any assist failure.
func (g *Generator) describe(ctx context.Context, in stages.DescribeInput) (stages.DescribeProposal, string) {
	if g.assist != nil {
		p, err := g.assist.Describe(ctx, in.Text)
		if err == nil {
			return *p, g.assist.Model()
		}
		g.logger.Warn("assist unavailable, using heuristic summary", "error", err)
	}
	return Describe(in)
}

func (g *Generator) candidates(ctx context.Context, in stages.CandidatesInput) (stages.CandidatesProposal, error) {
	var specs []controls.SpecEntry
	if g.specs != nil {
		var err error
		specs, err = g.specs.Specs(ctx)
		if err != nil {
			return stages.CandidatesProposal{}, fmt.Errorf("load control specs: %w", err)
		}
	}
	return RankCandidates(ctx, in, specs)
}

func decodeInput(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}
