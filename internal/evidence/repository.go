package evidence

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/pkg/pagination"
	"github.com/cairnhq/cairn/pkg/query"
	"github.com/cairnhq/cairn/pkg/repository"
	"github.com/cairnhq/cairn/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an evidence repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "evidence"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Evidence], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "Source")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count evidence: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvidence)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Evidence, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEvidence)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Evidence, error) {
	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload evidence blob: %w", err)
	}

	q := `
		INSERT INTO evidence(id, filename, content_type, size_bytes, page_count, source, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, filename, content_type, size_bytes, page_count, source, storage_key, status, classification, classified_at, uploaded_at, updated_at`

	insertArgs := []any{
		id,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		cmd.Source,
		key,
	}

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Evidence, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanEvidence)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("evidence created", "id", e.ID, "filename", e.Filename)
	return &e, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM evidence WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, e.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", e.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("evidence deleted", "id", id)
	return nil
}

// MarkInReview transitions an uploaded artifact into review. Already
// in-review artifacts pass through unchanged so that resuming a session
// is harmless; classified artifacts are rejected.
func (r *repo) MarkInReview(ctx context.Context, id uuid.UUID) (*Evidence, error) {
	q := `
		UPDATE evidence
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $2)
		RETURNING id, filename, content_type, size_bytes, page_count, source, storage_key, status, classification, classified_at, uploaded_at, updated_at`

	e, err := repository.QueryOne(ctx, r.db, q,
		[]any{id, StatusInReview, StatusUploaded}, scanEvidence)
	if err != nil {
		if mapped := repository.MapError(err, ErrNotFound, ErrDuplicate); mapped != ErrNotFound {
			return nil, mapped
		}
		return nil, r.classifyReviewError(ctx, id)
	}

	r.logger.Info("evidence in review", "id", e.ID)
	return &e, nil
}

// RecordClassification persists the decided classification from a
// completed review session and finalizes the artifact status.
func (r *repo) RecordClassification(ctx context.Context, id uuid.UUID, classification json.RawMessage) error {
	q := `
		UPDATE evidence
		SET classification = $2, status = $3, classified_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, q, id, []byte(classification), StatusClassified); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("evidence classified", "id", id)
	return nil
}

// classifyReviewError distinguishes a missing artifact from one whose
// status blocks the transition.
func (r *repo) classifyReviewError(ctx context.Context, id uuid.UUID) error {
	e, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: status %s", ErrNotReviewable, e.Status)
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("evidence/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "evidence"
	}
	return url.PathEscape(name)
}
