package propose

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cairnhq/cairn/internal/controls"
	"github.com/cairnhq/cairn/internal/stages"
)

// maxCandidates bounds the ranked suggestion list shown to reviewers.
const maxCandidates = 7

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "were": true,
	"have": true, "has": true, "had": true, "shall": true, "should": true,
	"will": true, "may": true, "can": true, "must": true, "of": true,
	"to": true, "in": true, "on": true, "by": true, "or": true, "an": true,
	"a": true, "as": true, "be": true, "is": true, "it": true, "at": true,
	"we": true, "you": true, "they": true, "their": true, "our": true,
}

// fallbackRule matches evidence text against a fixed keyword list when
// no specification corpus is available or nothing in it overlaps.
type fallbackRule struct {
	id       string
	label    string
	keywords []string
}

var fallbackRules = []fallbackRule{
	{"CTRL-PASS-001", "Password Policy", []string{"password policy", "passwords", "complexity", "rotate", "expiration", "length"}},
	{"CTRL-AUTH-001", "Multi-Factor Authentication", []string{"mfa", "2fa", "multi-factor", "two-factor", "otp", "okta"}},
	{"CTRL-ENC-001", "Encryption Controls", []string{"encryption", "aes-256", "tls", "at rest", "in transit", "kms"}},
	{"CTRL-LOG-001", "Logging and Monitoring", []string{"logging", "audit log", "cloudtrail", "siem", "splunk", "datadog", "cloudwatch"}},
	{"CTRL-IR-001", "Incident Response", []string{"incident response", "irp", "playbook", "pagerduty", "sev", "major incident"}},
}

// RankCandidates scores the specification corpus against the evidence
// text combined with the decided action summary, normalizes scores into
// a display confidence band, and returns the top suggestions. When the
// corpus produces no overlap it falls back to fixed keyword rules, and
// finally to a generic low-confidence candidate so the list is never empty.
func RankCandidates(
	ctx context.Context,
	in stages.CandidatesInput,
	specs []controls.SpecEntry,
) (stages.CandidatesProposal, error) {
	text := strings.ToLower(strings.TrimSpace(in.ActionsSummary + "\n" + in.Text))

	cands, err := scoreSpecs(ctx, text, specs)
	if err != nil {
		return stages.CandidatesProposal{}, err
	}

	if len(cands) == 0 {
		cands = matchFallbackRules(text)
	}

	if len(cands) == 0 {
		cands = []stages.Candidate{{
			ID:         "CTRL-GEN-000",
			Label:      "General Control",
			Confidence: 0.25,
			Rationale:  "No specific overlaps detected",
		}}
	}

	return stages.CandidatesProposal{Candidates: cands}, nil
}

// scoreSpecs computes token-overlap scores for every spec entry with
// bounded concurrency, then normalizes into [0.5, 0.99] and keeps the
// top maxCandidates. Ties preserve catalog order.
func scoreSpecs(ctx context.Context, text string, specs []controls.SpecEntry) ([]stages.Candidate, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	counts := tokenCounts(text)
	if len(counts) == 0 {
		return nil, nil
	}

	scored := make([]stages.Candidate, len(specs))
	raw := make([]float64, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(specs)))

	for i := range specs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			score, hits := scoreSpec(counts, specs[i].Specification)
			raw[i] = score
			scored[i] = stages.Candidate{
				ID:        specs[i].Code,
				Label:     specs[i].Label,
				Rationale: fmt.Sprintf("Spec overlap: %s", strings.Join(hits, ", ")),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score control specs: %w", err)
	}

	maxScore := 0.0
	for _, s := range raw {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return nil, nil
	}

	kept := make([]stages.Candidate, 0, len(scored))
	for i, c := range scored {
		if raw[i] <= 0 {
			continue
		}
		c.Confidence = round2(0.5 + 0.49*(raw[i]/maxScore))
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	if len(kept) > maxCandidates {
		kept = kept[:maxCandidates]
	}
	return kept, nil
}

// scoreSpec accumulates overlap between spec tokens (first 120) and the
// evidence token counts. Repeated evidence tokens add a small bonus;
// at most six hit tokens are reported.
func scoreSpec(counts map[string]int, spec string) (float64, []string) {
	stokens := tokenize(strings.ToLower(spec))
	if len(stokens) > 120 {
		stokens = stokens[:120]
	}

	score := 0.0
	var hits []string
	for _, t := range stokens {
		c := counts[t]
		if c == 0 {
			continue
		}
		score += 1.0 + 0.1*float64(min(5, c-1))
		if len(hits) < 6 {
			hits = append(hits, t)
		}
	}
	return score, hits
}

func matchFallbackRules(text string) []stages.Candidate {
	var cands []stages.Candidate
	for _, rule := range fallbackRules {
		var hits []string
		for _, k := range rule.keywords {
			if strings.Contains(text, k) {
				hits = append(hits, k)
			}
		}
		if len(hits) == 0 {
			continue
		}
		conf := 0.4 + 0.1*float64(len(hits))
		if conf > 0.95 {
			conf = 0.95
		}
		cands = append(cands, stages.Candidate{
			ID:         rule.id,
			Label:      rule.label,
			Confidence: round2(conf),
			Rationale:  fmt.Sprintf("Matched: %s", strings.Join(hits, ", ")),
		})
	}
	return cands
}

func tokenize(text string) []string {
	var out []string
	for _, t := range tokenRe.FindAllString(text, -1) {
		if len(t) > 2 && !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

func tokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, t := range tokenize(text) {
		counts[t]++
	}
	return counts
}

func workerCount(n int) int {
	return max(min(runtime.NumCPU(), n), 1)
}
