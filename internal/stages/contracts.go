package stages

// Contract describes the schema triplet for one stage: the fields the
// stage consumes, the fields its machine proposal carries, and the
// fields of the human-approved decided output. Decided lists every
// field the merger will emit; Required names the subset that must be
// non-empty before a decision may advance the session.
type Contract struct {
	Stage    Stage
	Input    []string
	Proposal []string
	Decided  []string
	Required []string
}

var contracts = map[Stage]Contract{
	StageIngestText: {
		Stage:    StageIngestText,
		Input:    []string{"text", "source"},
		Proposal: []string{"text", "source", "truncated", "length"},
		Decided:  []string{"text"},
		Required: []string{"text"},
	},
	StageDate: {
		Stage:    StageDate,
		Input:    []string{"text", "window"},
		Proposal: []string{"evidence_date", "candidates", "confidence", "rationale", "status", "reason"},
		Decided:  []string{"evidence_date", "status"},
		Required: []string{"evidence_date", "status"},
	},
	StageActionDescriber: {
		Stage:    StageActionDescriber,
		Input:    []string{"text"},
		Proposal: []string{"actions_summary"},
		Decided:  []string{"actions_summary"},
		Required: []string{"actions_summary"},
	},
	StageControlCandidates: {
		Stage:    StageControlCandidates,
		Input:    []string{"text", "actions_summary"},
		Proposal: []string{"candidates"},
		Decided:  []string{"candidates", "selection"},
		Required: []string{"candidates", "selection"},
	},
	StageFinalizeClassification: {
		Stage:    StageFinalizeClassification,
		Input:    []string{"evidence_date", "selection", "actions_summary"},
		Proposal: []string{"classification", "summary"},
		Decided:  []string{"classification", "summary"},
		Required: []string{"classification"},
	},
}

// ContractFor returns the schema contract for a stage.
// Returns ErrUnknownStage for values outside the pipeline.
func ContractFor(s Stage) (Contract, error) {
	c, ok := contracts[s]
	if !ok {
		return Contract{}, ErrUnknownStage
	}
	return c, nil
}
