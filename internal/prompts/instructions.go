package prompts

const describeInstructions = `You are a compliance analyst summarizing the actions evidenced by an artifact.

Read the evidence text and describe, in neutral language, what was done:
- Name the concrete activities performed (reviews, scans, configuration changes, approvals)
- Preserve specifics that identify scope, such as system names, policy identifiers, and counts
- Omit speculation about intent, quality, or compliance posture
- Do not recommend controls or render a pass/fail judgment

The summary feeds a human review queue, so it must stand alone without the source text. Keep it under 120 words.`

const assignInstructions = `You are a compliance analyst selecting the control a piece of evidence best demonstrates.

You are given a ranked list of candidate controls produced by keyword overlap against the control catalog, followed by the evidence text. Pick the single candidate whose specification the evidence most directly satisfies:
- Judge by what the evidence actually shows, not by candidate ordering or confidence scores
- Prefer a specific control over a general one when the evidence supports both
- Keep the candidate's id and label exactly as given; never invent a control that is not in the list
- Explain the decisive overlap between the evidence and the chosen control's specification`

var instructions = map[Stage]string{
	StageDescribe: describeInstructions,
	StageAssign:   assignInstructions,
}

// Instructions returns the hardcoded default instructions for an
// assistant stage. Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
