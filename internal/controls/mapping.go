package controls

import (
	"net/url"

	"github.com/cairnhq/cairn/pkg/query"
	"github.com/cairnhq/cairn/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "controls", "c").
	Project("id", "ID").
	Project("code", "Code").
	Project("label", "Label").
	Project("position", "Position").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field: "Position",
}

// Filters contains optional filtering criteria for control queries.
type Filters struct {
	Code  *string `json:"code,omitempty"`
	Label *string `json:"label,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Code", f.Code).
		WhereContains("Label", f.Label)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("code"); c != "" {
		f.Code = &c
	}
	if l := values.Get("label"); l != "" {
		f.Label = &l
	}

	return f
}

func scanControl(s repository.Scanner) (Control, error) {
	var c Control
	err := s.Scan(
		&c.ID,
		&c.Code,
		&c.Label,
		&c.Position,
		&c.CreatedAt,
	)
	return c, err
}

func scanSpecEntry(s repository.Scanner) (SpecEntry, error) {
	var e SpecEntry
	err := s.Scan(
		&e.ID,
		&e.ControlID,
		&e.Code,
		&e.Label,
		&e.Position,
		&e.Specification,
	)
	return e, err
}
