package sessions

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/pkg/query"
	"github.com/cairnhq/cairn/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sessions", "s").
	Project("id", "ID").
	Project("evidence_id", "EvidenceID").
	Project("current_stage", "CurrentStage").
	Project("status", "Status").
	Project("latest_result", "LatestResult").
	Project("error_reason", "ErrorReason").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for session queries.
type Filters struct {
	Status     *string    `json:"status,omitempty"`
	Stage      *string    `json:"stage,omitempty"`
	EvidenceID *uuid.UUID `json:"evidence_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("CurrentStage", f.Stage).
		WhereEquals("EvidenceID", f.EvidenceID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if s := values.Get("stage"); s != "" {
		f.Stage = &s
	}
	if e := values.Get("evidenceId"); e != "" {
		if id, err := uuid.Parse(e); err == nil {
			f.EvidenceID = &id
		}
	}

	return f
}

func scanSession(sc repository.Scanner) (Session, error) {
	var s Session
	err := sc.Scan(
		&s.ID,
		&s.EvidenceID,
		&s.CurrentStage,
		&s.Status,
		&s.LatestResult,
		&s.ErrorReason,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}
