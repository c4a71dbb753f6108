package propose_test

import (
	"strings"
	"testing"

	"github.com/cairnhq/cairn/internal/propose"
	"github.com/cairnhq/cairn/internal/stages"
)

func TestDescribe(t *testing.T) {
	t.Run("short text passes through collapsed", func(t *testing.T) {
		p, _ := propose.Describe(stages.DescribeInput{
			Text: "  Reviewed   access\n\nlogs for anomalies.  ",
		})
		if p.ActionsSummary != "Reviewed access logs for anomalies." {
			t.Errorf("summary: got %q", p.ActionsSummary)
		}
	})

	t.Run("empty text yields empty summary", func(t *testing.T) {
		p, _ := propose.Describe(stages.DescribeInput{Text: "   \n\t "})
		if p.ActionsSummary != "" {
			t.Errorf("summary: got %q, want empty", p.ActionsSummary)
		}
	})

	t.Run("long text truncates to word limit", func(t *testing.T) {
		words := make([]string, 0, 300)
		for i := 0; i < 300; i++ {
			words = append(words, "word")
		}
		p, _ := propose.Describe(stages.DescribeInput{Text: strings.Join(words, " ")})

		got := len(strings.Fields(p.ActionsSummary))
		if got > propose.MaxSummaryWords {
			t.Errorf("word count: got %d, want at most %d", got, propose.MaxSummaryWords)
		}
	})

	t.Run("truncation prefers late sentence boundary", func(t *testing.T) {
		// 119 filler words, a period, then overflow words. The period
		// lands near the end of the cut, so the summary ends on it.
		var sb strings.Builder
		for i := 0; i < 118; i++ {
			sb.WriteString("alpha ")
		}
		sb.WriteString("done beta.")
		for i := 0; i < 50; i++ {
			sb.WriteString(" overflow")
		}

		p, _ := propose.Describe(stages.DescribeInput{Text: sb.String()})
		if !strings.HasSuffix(p.ActionsSummary, "done beta.") {
			t.Errorf("summary should end at sentence boundary, got %q", tail(p.ActionsSummary))
		}
	})
}

func tail(s string) string {
	if len(s) <= 40 {
		return s
	}
	return "..." + s[len(s)-40:]
}
