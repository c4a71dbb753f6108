package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cairnhq/cairn/internal/stages"
)

// Merge errors. Neither is transient: the caller must resubmit with
// explicit approval or the missing fields.
var (
	ErrNotApproved        = errors.New("human input not approved")
	ErrIncompleteDecision = errors.New("decided output missing required fields")
)

// IncompleteDecisionError names the required fields absent after a merge.
type IncompleteDecisionError struct {
	Stage   stages.Stage
	Missing []string
}

func (e *IncompleteDecisionError) Error() string {
	return fmt.Sprintf(
		"%s: %s missing %s",
		e.Stage, ErrIncompleteDecision, strings.Join(e.Missing, ", "),
	)
}

func (e *IncompleteDecisionError) Unwrap() error {
	return ErrIncompleteDecision
}
