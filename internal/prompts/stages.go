package prompts

import (
	"encoding/json"
	"slices"
)

// Stage represents an assistant call site that a prompt override targets.
type Stage string

// Valid assistant stages. Describe produces the neutral action summary;
// assign selects the best control candidate for an evidence artifact.
const (
	StageDescribe Stage = "describe"
	StageAssign   Stage = "assign"
)

var stageList = []Stage{
	StageDescribe,
	StageAssign,
}

// Stages returns the list of valid assistant stages.
func Stages() []Stage {
	return stageList
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Stage(raw)
	if !slices.Contains(stageList, v) {
		return ErrInvalidStage
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known assistant stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stageList, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
