package stages

// DateStatus reports the outcome of checking an evidence date against
// the caller-supplied review window.
type DateStatus string

// Date guard outcomes. Unknown is used whenever either the date or the
// window is missing or unparseable; it is never promoted to pass or fail.
const (
	DatePass    DateStatus = "pass"
	DateFail    DateStatus = "fail"
	DateUnknown DateStatus = "unknown"
)

// DateWindow bounds the period an evidence date must fall within,
// inclusive on both ends. Dates are ISO YYYY-MM-DD strings.
type DateWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// IngestInput carries the raw text handed over by the external text
// source (OCR, upload pipeline). The core treats Text as opaque except
// for its length.
type IngestInput struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// IngestProposal is the machine proposal for the ingest_text stage.
type IngestProposal struct {
	Text      string `json:"text"`
	Source    string `json:"source"`
	Truncated bool   `json:"truncated"`
	Length    int    `json:"length"`
}

// DateInput carries the evidence text and the optional review window
// for the date stage.
type DateInput struct {
	Text   string      `json:"text"`
	Window *DateWindow `json:"window,omitempty"`
}

// DateProposal combines date extraction and window validation. Both
// halves are always populated together: extraction feeds EvidenceDate,
// Candidates, Confidence, and Rationale; the window check feeds Status
// and Reason.
type DateProposal struct {
	EvidenceDate *string    `json:"evidence_date"`
	Candidates   []string   `json:"candidates"`
	Confidence   float64    `json:"confidence"`
	Rationale    string     `json:"rationale"`
	Status       DateStatus `json:"status"`
	Reason       string     `json:"reason"`
}

// DescribeInput carries the evidence text for the action_describer stage.
type DescribeInput struct {
	Text string `json:"text"`
}

// DescribeProposal is the machine proposal for the action_describer
// stage: a neutral summary of at most 120 words.
type DescribeProposal struct {
	ActionsSummary string `json:"actions_summary"`
}

// Candidate is one ranked control suggestion. Confidence is a display
// value clipped to signal machine suggestion rather than certainty.
type Candidate struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// CandidatesInput carries the evidence text and the decided action
// summary (when available) for the control_candidates stage.
type CandidatesInput struct {
	Text           string `json:"text"`
	ActionsSummary string `json:"actions_summary"`
}

// CandidatesProposal is the ranked candidate list for the
// control_candidates stage.
type CandidatesProposal struct {
	Candidates []Candidate `json:"candidates"`
}

// FinalizeInput carries the decided outputs of prior stages into the
// finalize_classification stage.
type FinalizeInput struct {
	EvidenceDate   *string    `json:"evidence_date"`
	Selection      *Candidate `json:"selection"`
	ActionsSummary string     `json:"actions_summary"`
}

// Classification is the assembled classification result.
type Classification struct {
	EvidenceDate   *string    `json:"evidence_date"`
	Control        *Candidate `json:"control"`
	ActionsSummary string     `json:"actions_summary"`
}

// FinalizeProposal is the machine proposal for the
// finalize_classification stage.
type FinalizeProposal struct {
	Classification Classification `json:"classification"`
	Summary        string         `json:"summary"`
}
