// Package stages defines the fixed review pipeline and the per-stage
// data contracts. The stage order is a hard invariant: every evidence
// session traverses the same sequence, one stage at a time, and no
// component may reorder or skip entries at runtime.
package stages

import (
	"encoding/json"
	"slices"
)

// Stage represents one step in the fixed review pipeline.
type Stage string

// Pipeline stages in traversal order.
const (
	StageIngestText             Stage = "ingest_text"
	StageDate                   Stage = "date"
	StageActionDescriber        Stage = "action_describer"
	StageControlCandidates      Stage = "control_candidates"
	StageFinalizeClassification Stage = "finalize_classification"
)

var order = []Stage{
	StageIngestText,
	StageDate,
	StageActionDescriber,
	StageControlCandidates,
	StageFinalizeClassification,
}

// Order returns the pipeline stages in traversal order.
// The returned slice is a copy; callers may not mutate the pipeline.
func Order() []Stage {
	return slices.Clone(order)
}

// First returns the entry stage of the pipeline.
func First() Stage {
	return order[0]
}

// Last returns the terminal stage of the pipeline.
func Last() Stage {
	return order[len(order)-1]
}

// Next returns the stage following s, or false when s is terminal.
func Next(s Stage) (Stage, bool) {
	idx := slices.Index(order, s)
	if idx == -1 || idx == len(order)-1 {
		return "", false
	}
	return order[idx+1], true
}

// Index returns the zero-based position of s in the pipeline,
// or -1 when s is not a known stage.
func Index(s Stage) int {
	return slices.Index(order, s)
}

// Parse validates a string as a known pipeline stage.
// Returns ErrUnknownStage if the value is not recognized.
func Parse(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(order, v) {
		return "", ErrUnknownStage
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
