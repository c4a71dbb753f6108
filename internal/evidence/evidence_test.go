package evidence_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/cairnhq/cairn/internal/evidence"
	"github.com/cairnhq/cairn/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", evidence.ErrNotFound, http.StatusNotFound},
		{"duplicate", evidence.ErrDuplicate, http.StatusConflict},
		{"file too large", evidence.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid file", evidence.ErrInvalidFile, http.StatusBadRequest},
		{"not reviewable", evidence.ErrNotReviewable, http.StatusConflict},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", evidence.ErrNotFound), http.StatusNotFound},
		{"wrapped duplicate", fmt.Errorf("insert failed: %w", evidence.ErrDuplicate), http.StatusConflict},
		{"wrapped not reviewable", fmt.Errorf("review failed: %w", evidence.ErrNotReviewable), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evidence.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"status":       {"uploaded"},
			"filename":     {"report"},
			"source":       {"okta"},
			"content_type": {"application/pdf"},
			"storage_key":  {"evidence/abc"},
		}

		f := evidence.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "uploaded" {
			t.Errorf("Status = %v, want uploaded", f.Status)
		}
		if f.Filename == nil || *f.Filename != "report" {
			t.Errorf("Filename = %v, want report", f.Filename)
		}
		if f.Source == nil || *f.Source != "okta" {
			t.Errorf("Source = %v, want okta", f.Source)
		}
		if f.ContentType == nil || *f.ContentType != "application/pdf" {
			t.Errorf("ContentType = %v, want application/pdf", f.ContentType)
		}
		if f.StorageKey == nil || *f.StorageKey != "evidence/abc" {
			t.Errorf("StorageKey = %v, want evidence/abc", f.StorageKey)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := evidence.FiltersFromQuery(url.Values{})

		if f.Status != nil {
			t.Errorf("Status = %v, want nil", f.Status)
		}
		if f.Filename != nil {
			t.Errorf("Filename = %v, want nil", f.Filename)
		}
		if f.Source != nil {
			t.Errorf("Source = %v, want nil", f.Source)
		}
		if f.ContentType != nil {
			t.Errorf("ContentType = %v, want nil", f.ContentType)
		}
		if f.StorageKey != nil {
			t.Errorf("StorageKey = %v, want nil", f.StorageKey)
		}
	})

	t.Run("partial params", func(t *testing.T) {
		values := url.Values{
			"status":   {"in_review"},
			"filename": {"rotation"},
		}

		f := evidence.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "in_review" {
			t.Errorf("Status = %v, want in_review", f.Status)
		}
		if f.Filename == nil || *f.Filename != "rotation" {
			t.Errorf("Filename = %v, want rotation", f.Filename)
		}
		if f.Source != nil {
			t.Errorf("Source = %v, want nil", f.Source)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "evidence", "e").
		Project("status", "Status").
		Project("filename", "Filename").
		Project("source", "Source").
		Project("content_type", "ContentType").
		Project("storage_key", "StorageKey")

	t.Run("no filters produces no WHERE clause", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := evidence.Filters{}
		f.Apply(b)
		sql, args := b.Build()

		wantSQL := "SELECT e.status, e.filename, e.source, e.content_type, e.storage_key FROM public.evidence e"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("status equals filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := evidence.Filters{Status: ptr("uploaded")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
		if v, ok := args[0].(*string); !ok || *v != "uploaded" {
			t.Errorf("args[0] = %v, want *uploaded", args[0])
		}
	})

	t.Run("filename contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := evidence.Filters{Filename: ptr("report")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%report%" {
			t.Errorf("args = %v, want [%%report%%]", args)
		}
	})

	t.Run("storage key contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := evidence.Filters{StorageKey: ptr("evidence/abc")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%evidence/abc%" {
			t.Errorf("args = %v, want [%%evidence/abc%%]", args)
		}
	})

	t.Run("source equals filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := evidence.Filters{Source: ptr("okta")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
		if v, ok := args[0].(*string); !ok || *v != "okta" {
			t.Errorf("args[0] = %v, want *okta", args[0])
		}
	})

	t.Run("multiple filters combine with AND", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := evidence.Filters{
			Status:   ptr("uploaded"),
			Filename: ptr("report"),
			Source:   ptr("okta"),
		}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 3 {
			t.Errorf("args length = %d, want 3", len(args))
		}
	})

	t.Run("content_type equals filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := evidence.Filters{ContentType: ptr("application/pdf")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
		if v, ok := args[0].(*string); !ok || *v != "application/pdf" {
			t.Errorf("args[0] = %v, want *application/pdf", args[0])
		}
	})
}
