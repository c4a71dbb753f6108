package propose

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cairnhq/cairn/internal/stages"
)

const monthNames = `Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:t|tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?`

var (
	isoDateRe = regexp.MustCompile(`\b(20\d{2}|19\d{2})[-/](0?[1-9]|1[0-2])[-/](0?[1-9]|[12]\d|3[01])\b`)
	mdyDateRe = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{1,2}),?\s+(\d{4})\b`)
	dmyDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + monthNames + `)\s+(\d{4})\b`)
)

// dateKeywords mark context that suggests a date is the evidence date
// rather than an incidental mention.
var dateKeywords = []string{
	"report date", "effective", "as of", "evidence date",
	"signed", "generated", "issued", "date:",
}

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

type dateCandidate struct {
	iso   string
	start int
	end   int
}

// ExtractDate finds date mentions in the evidence text, chooses the most
// likely evidence date by scoring surrounding context, and checks it
// against the review window when one is provided.
func ExtractDate(in stages.DateInput) stages.DateProposal {
	cands := findDates(in.Text)

	p := stages.DateProposal{
		Candidates: make([]string, 0, len(cands)),
		Confidence: 0.0,
		Rationale:  "No dates detected",
	}
	for _, c := range cands {
		p.Candidates = append(p.Candidates, c.iso)
	}

	if len(cands) > 0 {
		chosen, confidence, rationale := chooseEvidenceDate(in.Text, cands)
		p.EvidenceDate = &chosen
		p.Confidence = confidence
		p.Rationale = rationale
	}

	p.Status, p.Reason = checkWindow(p.EvidenceDate, in.Window)
	return p
}

// findDates scans for ISO, "Month DD, YYYY", and "DD Month YYYY" forms,
// deduplicating by canonical date and keeping the first occurrence.
func findDates(text string) []dateCandidate {
	var out []dateCandidate

	for _, m := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		y, _ := strconv.Atoi(text[m[2]:m[3]])
		mo, _ := strconv.Atoi(text[m[4]:m[5]])
		d, _ := strconv.Atoi(text[m[6]:m[7]])
		if iso, ok := safeISO(y, mo, d); ok {
			out = append(out, dateCandidate{iso: iso, start: m[0], end: m[1]})
		}
	}

	for _, m := range mdyDateRe.FindAllStringSubmatchIndex(text, -1) {
		mo := monthNumbers[strings.ToLower(text[m[2]:m[3]])]
		d, _ := strconv.Atoi(text[m[4]:m[5]])
		y, _ := strconv.Atoi(text[m[6]:m[7]])
		if iso, ok := safeISO(y, mo, d); ok {
			out = append(out, dateCandidate{iso: iso, start: m[0], end: m[1]})
		}
	}

	for _, m := range dmyDateRe.FindAllStringSubmatchIndex(text, -1) {
		d, _ := strconv.Atoi(text[m[2]:m[3]])
		mo := monthNumbers[strings.ToLower(text[m[4]:m[5]])]
		y, _ := strconv.Atoi(text[m[6]:m[7]])
		if iso, ok := safeISO(y, mo, d); ok {
			out = append(out, dateCandidate{iso: iso, start: m[0], end: m[1]})
		}
	}

	seen := make(map[string]bool, len(out))
	uniq := out[:0]
	for _, c := range out {
		if seen[c.iso] {
			continue
		}
		seen[c.iso] = true
		uniq = append(uniq, c)
	}
	return uniq
}

// chooseEvidenceDate scores each candidate by keyword hits in a context
// window around its span, with a slight freshness bonus for later years.
func chooseEvidenceDate(text string, cands []dateCandidate) (string, float64, string) {
	var (
		best      dateCandidate
		bestScore = -1.0
		bestHits  []string
	)

	for _, c := range cands {
		start := max(0, c.start-80)
		end := min(len(text), c.end+40)
		window := strings.ToLower(text[start:end])

		score := 0.5
		var hits []string
		for _, kw := range dateKeywords {
			if strings.Contains(window, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			score += 0.2 + 0.1*float64(min(3, len(hits)))
		}

		if y, err := strconv.Atoi(c.iso[:4]); err == nil {
			score += float64(y-2000) * 0.001
		}

		if score > bestScore {
			bestScore = score
			best = c
			bestHits = hits
		}
	}

	hitNote := "none"
	if len(bestHits) > 0 {
		hitNote = strings.Join(bestHits, ", ")
	}

	confidence := math.Min(0.99, round2(bestScore))
	return best.iso, confidence, fmt.Sprintf("Context hits: %s", hitNote)
}

// checkWindow validates the evidence date against an inclusive review
// window. Missing or unparseable inputs yield unknown, never pass or fail.
func checkWindow(evidenceDate *string, window *stages.DateWindow) (stages.DateStatus, string) {
	if evidenceDate == nil || *evidenceDate == "" {
		return stages.DateUnknown, "No evidence_date provided"
	}

	ev, err := parseISODate(*evidenceDate)
	if err != nil {
		return stages.DateUnknown, "Invalid date format"
	}

	if window == nil || window.Start == "" || window.End == "" {
		return stages.DateUnknown, "No window provided"
	}

	ws, errS := parseISODate(window.Start)
	we, errE := parseISODate(window.End)
	if errS != nil || errE != nil {
		return stages.DateUnknown, "Invalid window"
	}

	if !ev.Before(ws) && !ev.After(we) {
		return stages.DatePass, "Within window (inclusive)"
	}
	return stages.DateFail, "Outside window"
}

func safeISO(y, m, d int) (string, bool) {
	if m < 1 || m > 12 || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func parseISODate(s string) (time.Time, error) {
	parts := strings.SplitN(s, "-", 4)
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("not an ISO date: %q", s)
	}

	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	d, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("not an ISO date: %q", s)
	}

	if _, ok := safeISO(y, m, d); !ok {
		return time.Time{}, fmt.Errorf("invalid date: %q", s)
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
