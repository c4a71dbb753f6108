package evidence

import (
	"net/url"

	"github.com/cairnhq/cairn/pkg/query"
	"github.com/cairnhq/cairn/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "evidence", "e").
	Project("id", "ID").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("source", "Source").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("classification", "Classification").
	Project("classified_at", "ClassifiedAt").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for evidence queries.
// Nil fields are ignored. Status, Source, and ContentType use exact
// matching. Filename and StorageKey use case-insensitive contains
// matching.
type Filters struct {
	Status      *string `json:"status,omitempty"`
	Filename    *string `json:"filename,omitempty"`
	Source      *string `json:"source,omitempty"`
	ContentType *string `json:"content_type,omitempty"`
	StorageKey  *string `json:"storage_key,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Filename", f.Filename).
		WhereEquals("Source", f.Source).
		WhereEquals("ContentType", f.ContentType).
		WhereContains("StorageKey", f.StorageKey)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if src := values.Get("source"); src != "" {
		f.Source = &src
	}

	if ct := values.Get("content_type"); ct != "" {
		f.ContentType = &ct
	}

	if sk := values.Get("storage_key"); sk != "" {
		f.StorageKey = &sk
	}

	return f
}

func scanEvidence(s repository.Scanner) (Evidence, error) {
	var (
		e              Evidence
		classification []byte
	)
	err := s.Scan(
		&e.ID,
		&e.Filename,
		&e.ContentType,
		&e.SizeBytes,
		&e.PageCount,
		&e.Source,
		&e.StorageKey,
		&e.Status,
		&classification,
		&e.ClassifiedAt,
		&e.UploadedAt,
		&e.UpdatedAt,
	)
	if len(classification) > 0 {
		e.Classification = classification
	}
	return e, err
}
