// Package merge combines machine proposals with human edits into decided
// outputs. The merge is a shallow override: each decided field comes
// entirely from the human edit when one is present and non-empty,
// otherwise entirely from the proposal, so provenance stays unambiguous.
package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cairnhq/cairn/internal/stages"
)

// HumanInput captures a reviewer's response to a stage proposal.
// Approved must be explicitly true for a merge to proceed.
type HumanInput struct {
	Approved   bool                       `json:"approved"`
	Edits      map[string]json.RawMessage `json:"edits,omitempty"`
	Reason     string                     `json:"reason,omitempty"`
	ReviewerID *string                    `json:"reviewer_id,omitempty"`
}

// Apply merges a stage proposal with human edits per the stage contract.
// Edits targeting fields outside the contract's decided set are ignored.
// Null and empty-string edits do not override the proposal value.
func Apply(
	contract stages.Contract,
	proposal json.RawMessage,
	human HumanInput,
) (json.RawMessage, error) {
	if !human.Approved {
		return nil, ErrNotApproved
	}

	var fields map[string]json.RawMessage
	if len(proposal) > 0 {
		if err := json.Unmarshal(proposal, &fields); err != nil {
			return nil, fmt.Errorf("decode proposal for %s: %w", contract.Stage, err)
		}
	}

	decided := make(map[string]json.RawMessage, len(contract.Decided))
	for _, f := range contract.Decided {
		if v, ok := fields[f]; ok {
			decided[f] = v
		}
	}

	for f, v := range human.Edits {
		if !slices.Contains(contract.Decided, f) {
			continue
		}
		if emptyValue(v) {
			continue
		}
		decided[f] = v
	}

	var missing []string
	for _, f := range contract.Required {
		v, ok := decided[f]
		if !ok || emptyValue(v) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteDecisionError{
			Stage:   contract.Stage,
			Missing: missing,
		}
	}

	out, err := json.Marshal(decided)
	if err != nil {
		return nil, fmt.Errorf("encode decided output for %s: %w", contract.Stage, err)
	}
	return out, nil
}

// emptyValue reports whether a raw JSON value is absent for merge
// purposes: missing, JSON null, or an empty string.
func emptyValue(v json.RawMessage) bool {
	trimmed := bytes.TrimSpace(v)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte(`""`))
}
