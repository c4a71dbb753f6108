package propose

import (
	"fmt"

	"github.com/cairnhq/cairn/internal/stages"
)

// Finalize assembles the classification from the decided outputs of the
// prior stages and composes a reviewer-facing summary line.
func Finalize(in stages.FinalizeInput) stages.FinalizeProposal {
	c := stages.Classification{
		EvidenceDate:   in.EvidenceDate,
		Control:        in.Selection,
		ActionsSummary: in.ActionsSummary,
	}

	return stages.FinalizeProposal{
		Classification: c,
		Summary:        summarizeClassification(c),
	}
}

func summarizeClassification(c stages.Classification) string {
	date := "undated"
	if c.EvidenceDate != nil && *c.EvidenceDate != "" {
		date = "dated " + *c.EvidenceDate
	}

	if c.Control == nil {
		return fmt.Sprintf("Evidence %s with no control assigned", date)
	}
	return fmt.Sprintf(
		"Evidence %s classified as %s (%s)",
		date, c.Control.Label, c.Control.ID,
	)
}
