package workflow

import (
	"context"
	"fmt"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/cairnhq/cairn/internal/sessions"
)

// Execute runs the unattended classification workflow for a single
// artifact. It starts a review session, builds the state graph
// (ingest → date → describe → candidates → select/assign → finalize),
// executes it with every proposal auto-approved, and extracts the
// Result from the final state. The completed session retains the full
// decision trail.
func Execute(ctx context.Context, rt *Runtime, req Request) (*Result, error) {
	session, err := rt.Engine.Start(ctx, sessions.StartCommand{EvidenceID: req.EvidenceID})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeySessionID, session.ID)
	initialState = initialState.Set(KeyText, req.Text)
	initialState = initialState.Set(KeySource, req.Source)
	if req.Window != nil {
		initialState = initialState.Set(KeyWindow, req.Window)
	}
	if req.EvidenceID != nil {
		initialState = initialState.Set(KeyEvidenceID, *req.EvidenceID)
	}
	if req.ReviewerID != nil {
		initialState = initialState.Set(KeyReviewer, *req.ReviewerID)
	}

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(finalState, req)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("cairn-classify")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("ingest", IngestNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("date", DateNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("describe", DescribeNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("candidates", CandidatesNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("select", SelectNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("assign", AssignNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	// ingest → date → describe → candidates (unconditional)
	if err := graph.AddEdge("ingest", "date", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("date", "describe", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("describe", "candidates", nil); err != nil {
		return nil, err
	}

	// candidates → assign (when the assistant is wired)
	useAssist := func(state.State) bool { return rt.assistUsable() }
	if err := graph.AddEdge("candidates", "assign", useAssist); err != nil {
		return nil, err
	}

	// candidates → select (heuristic top candidate otherwise)
	if err := graph.AddEdge("candidates", "select", state.Not(useAssist)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("select", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("assign", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("ingest"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

func extractResult(s state.State, req Request) (*Result, error) {
	id, err := sessionID(s)
	if err != nil {
		return nil, err
	}

	val, ok := s.Get(KeyResult)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s in final state", ErrStateMissing, KeyResult)
	}

	decided, ok := val.(finalizeDecided)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a finalize decision", ErrStateMissing, KeyResult)
	}

	return &Result{
		SessionID:      id,
		EvidenceID:     req.EvidenceID,
		Classification: decided.Classification,
		Summary:        decided.Summary,
		CompletedAt:    time.Now(),
	}, nil
}
