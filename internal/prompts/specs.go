package prompts

const describeSpec = `Respond with a JSON object matching this exact structure:

{
  "actions_summary": "<summary>"
}

Field constraints:
- actions_summary: Neutral description of the actions evidenced by the
  text, at most 120 words. Complete sentences, no bullet points, no
  headings. Preserve identifying specifics (system names, policy
  identifiers, dates, counts) verbatim.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Describe only what the text evidences; never infer unstated activity
- Never assess compliance, assign controls, or judge adequacy`

const assignSpec = `Respond with a JSON object matching this exact structure:

{
  "selection": {
    "id": "<candidate id>",
    "label": "<candidate label>",
    "confidence": 0.0,
    "rationale": ""
  },
  "rationale": "<explanation>"
}

Field constraints:
- selection: The chosen candidate, copied from the provided list. The id
  and label must match one of the candidates exactly; confidence and the
  inner rationale may be carried over or left as given.
- rationale: Brief explanation of why this control's specification is the
  best match for the evidence. Cite the overlapping activity, not the
  candidate's position in the list.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Select exactly one candidate from the provided list
- Never invent a control id that does not appear in the candidates`

var specs = map[Stage]string{
	StageDescribe: describeSpec,
	StageAssign:   assignSpec,
}

// Spec returns the hardcoded specification for an assistant stage.
// Specifications define the expected output format and behavioral
// constraints. Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
