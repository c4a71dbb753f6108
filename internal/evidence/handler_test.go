package evidence_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/evidence"
	"github.com/cairnhq/cairn/pkg/pagination"
)

type mockSystem struct {
	listFn         func(ctx context.Context, page pagination.PageRequest, filters evidence.Filters) (*pagination.PageResult[evidence.Evidence], error)
	findFn         func(ctx context.Context, id uuid.UUID) (*evidence.Evidence, error)
	createFn       func(ctx context.Context, cmd evidence.CreateCommand) (*evidence.Evidence, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	markInReviewFn func(ctx context.Context, id uuid.UUID) (*evidence.Evidence, error)
	recordFn       func(ctx context.Context, id uuid.UUID, classification json.RawMessage) error
}

func (m *mockSystem) Handler(maxUploadSize int64) *evidence.Handler {
	return evidence.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxUploadSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters evidence.Filters) (*pagination.PageResult[evidence.Evidence], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*evidence.Evidence, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd evidence.CreateCommand) (*evidence.Evidence, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) MarkInReview(ctx context.Context, id uuid.UUID) (*evidence.Evidence, error) {
	return m.markInReviewFn(ctx, id)
}

func (m *mockSystem) RecordClassification(ctx context.Context, id uuid.UUID, classification json.RawMessage) error {
	return m.recordFn(ctx, id, classification)
}

func newTestHandler(sys *mockSystem) *evidence.Handler {
	return evidence.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		50*1024*1024,
	)
}

func setupMux(h *evidence.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleEvidence() evidence.Evidence {
	return evidence.Evidence{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Filename:    "password-rotation.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		PageCount:   ptr(5),
		Source:      "okta",
		StorageKey:  "evidence/550e8400-e29b-41d4-a716-446655440000/password-rotation.pdf",
		Status:      evidence.StatusUploaded,
		UploadedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	e := sampleEvidence()
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, _ evidence.Filters) (*pagination.PageResult[evidence.Evidence], error) {
			result := pagination.NewPageResult([]evidence.Evidence{e}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("returns paginated list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/evidence", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[evidence.Evidence]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}

		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
		if len(result.Data) != 1 {
			t.Fatalf("data length = %d, want 1", len(result.Data))
		}
		if result.Data[0].ID != e.ID {
			t.Errorf("id = %v, want %v", result.Data[0].ID, e.ID)
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured evidence.Filters
		sys.listFn = func(_ context.Context, _ pagination.PageRequest, f evidence.Filters) (*pagination.PageResult[evidence.Evidence], error) {
			captured = f
			result := pagination.NewPageResult([]evidence.Evidence{}, 0, 1, 20)
			return &result, nil
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/evidence?status=uploaded&filename=rotation", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Status == nil || *captured.Status != "uploaded" {
			t.Errorf("status filter = %v, want uploaded", captured.Status)
		}
		if captured.Filename == nil || *captured.Filename != "rotation" {
			t.Errorf("filename filter = %v, want rotation", captured.Filename)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	e := sampleEvidence()

	t.Run("returns evidence by id", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*evidence.Evidence, error) {
				if id != e.ID {
					return nil, evidence.ErrNotFound
				}
				return &e, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/evidence/"+e.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got evidence.Evidence
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("id = %v, want %v", got.ID, e.ID)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/evidence/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*evidence.Evidence, error) {
				return nil, evidence.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/evidence/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerSearch(t *testing.T) {
	e := sampleEvidence()

	t.Run("returns search results", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(_ context.Context, _ pagination.PageRequest, _ evidence.Filters) (*pagination.PageResult[evidence.Evidence], error) {
				result := pagination.NewPageResult([]evidence.Evidence{e}, 1, 1, 20)
				return &result, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(evidence.SearchRequest{
			PageRequest: pagination.PageRequest{Page: 1, PageSize: 20},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence/search", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[evidence.Evidence]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence/search", bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("normalizes pagination", func(t *testing.T) {
		var capturedPage pagination.PageRequest
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, _ evidence.Filters) (*pagination.PageResult[evidence.Evidence], error) {
				capturedPage = page
				result := pagination.NewPageResult([]evidence.Evidence{}, 0, page.Page, page.PageSize)
				return &result, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(evidence.SearchRequest{
			PageRequest: pagination.PageRequest{Page: 0, PageSize: 0},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence/search", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedPage.Page != 1 {
			t.Errorf("page = %d, want 1 (normalized)", capturedPage.Page)
		}
		if capturedPage.PageSize != 20 {
			t.Errorf("page_size = %d, want 20 (default)", capturedPage.PageSize)
		}
	})
}

func TestHandlerUpload(t *testing.T) {
	e := sampleEvidence()

	t.Run("creates evidence from multipart form", func(t *testing.T) {
		var capturedCmd evidence.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd evidence.CreateCommand) (*evidence.Evidence, error) {
				capturedCmd = cmd
				return &e, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, "password-rotation.pdf", []byte("fake pdf content"), "okta")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if capturedCmd.Filename != "password-rotation.pdf" {
			t.Errorf("filename = %q, want password-rotation.pdf", capturedCmd.Filename)
		}
		if capturedCmd.Source != "okta" {
			t.Errorf("source = %q, want okta", capturedCmd.Source)
		}
	})

	t.Run("missing source defaults to unknown", func(t *testing.T) {
		var capturedCmd evidence.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd evidence.CreateCommand) (*evidence.Evidence, error) {
				capturedCmd = cmd
				return &e, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, "report.pdf", []byte("content"), "")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if capturedCmd.Source != "unknown" {
			t.Errorf("source = %q, want unknown", capturedCmd.Source)
		}
	})

	t.Run("missing file returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		writer.WriteField("source", "okta")
		writer.Close()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("system create error maps status", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(_ context.Context, _ evidence.CreateCommand) (*evidence.Evidence, error) {
				return nil, evidence.ErrDuplicate
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, "report.pdf", []byte("content"), "okta")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestHandlerMarkInReview(t *testing.T) {
	e := sampleEvidence()
	e.Status = evidence.StatusInReview

	t.Run("marks evidence in review", func(t *testing.T) {
		var capturedID uuid.UUID
		sys := &mockSystem{
			markInReviewFn: func(_ context.Context, id uuid.UUID) (*evidence.Evidence, error) {
				capturedID = id
				return &e, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence/"+e.ID.String()+"/review", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedID != e.ID {
			t.Errorf("id = %v, want %v", capturedID, e.ID)
		}

		var got evidence.Evidence
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Status != evidence.StatusInReview {
			t.Errorf("status = %q, want in_review", got.Status)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence/not-a-uuid/review", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("classified evidence returns 409", func(t *testing.T) {
		sys := &mockSystem{
			markInReviewFn: func(_ context.Context, _ uuid.UUID) (*evidence.Evidence, error) {
				return nil, evidence.ErrNotReviewable
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence/"+uuid.New().String()+"/review", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			markInReviewFn: func(_ context.Context, _ uuid.UUID) (*evidence.Evidence, error) {
				return nil, evidence.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/evidence/"+uuid.New().String()+"/review", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	evidenceID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	t.Run("deletes evidence", func(t *testing.T) {
		var capturedID uuid.UUID
		sys := &mockSystem{
			deleteFn: func(_ context.Context, id uuid.UUID) error {
				capturedID = id
				return nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/evidence/"+evidenceID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if capturedID != evidenceID {
			t.Errorf("id = %v, want %v", capturedID, evidenceID)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/evidence/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			deleteFn: func(_ context.Context, _ uuid.UUID) error {
				return evidence.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/evidence/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerRoutes(t *testing.T) {
	sys := &mockSystem{}
	h := newTestHandler(sys)
	group := h.Routes()

	if group.Prefix != "/evidence" {
		t.Errorf("prefix = %q, want /evidence", group.Prefix)
	}

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", ""},
		{"GET", "/{id}"},
		{"POST", ""},
		{"POST", "/search"},
		{"POST", "/{id}/review"},
		{"DELETE", "/{id}"},
	}

	if len(group.Routes) != len(want) {
		t.Fatalf("route count = %d, want %d", len(group.Routes), len(want))
	}

	for i, w := range want {
		r := group.Routes[i]
		if r.Method != w.method || r.Pattern != w.pattern {
			t.Errorf("route[%d] = %s %s, want %s %s", i, r.Method, r.Pattern, w.method, w.pattern)
		}
	}
}

func createMultipartForm(t *testing.T, filename string, content []byte, source string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if len(content) > 0 {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(content)
	}

	if source != "" {
		writer.WriteField("source", source)
	}

	writer.Close()
	return &buf, writer.FormDataContentType()
}
