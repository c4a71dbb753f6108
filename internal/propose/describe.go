package propose

import (
	"regexp"
	"strings"

	"github.com/cairnhq/cairn/internal/stages"
)

// MaxSummaryWords caps the neutral action summary length.
const MaxSummaryWords = 120

var whitespaceRe = regexp.MustCompile(`\s+`)

// Describe produces a neutral summary of the actions described by the
// evidence text: whitespace collapsed, truncated to MaxSummaryWords,
// preferring a sentence boundary when one falls late enough in the cut.
func Describe(in stages.DescribeInput) (stages.DescribeProposal, string) {
	return stages.DescribeProposal{ActionsSummary: summarize(in.Text, MaxSummaryWords)}, ""
}

func summarize(text string, maxWords int) string {
	body := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if body == "" {
		return ""
	}

	words := strings.Fields(body)
	if len(words) <= maxWords {
		return body
	}

	truncated := strings.Join(words[:maxWords], " ")

	// End on the last period when it lands past 60% of the cut.
	cut := strings.LastIndex(truncated, ".")
	if cut >= max(40, int(float64(len(truncated))*0.6)) {
		return truncated[:cut+1]
	}
	return truncated
}
