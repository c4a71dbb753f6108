package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/ledger"
	"github.com/cairnhq/cairn/pkg/pagination"
	"github.com/cairnhq/cairn/pkg/query"
	"github.com/cairnhq/cairn/pkg/repository"
)

const sessionColumns = `id, evidence_id, current_stage, status,
		latest_result, error_reason, created_at, updated_at`

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a session repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "sessions"),
		pagination: pagination,
	}
}

func (r *repo) Create(ctx context.Context, cmd StartCommand) (*Session, error) {
	q := fmt.Sprintf(`
		INSERT INTO sessions(evidence_id)
		VALUES ($1)
		RETURNING %s`, sessionColumns)

	s, err := repository.QueryOne(ctx, r.db, q, []any{cmd.EvidenceID}, scanSession)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("session started",
		"id", s.ID,
		"evidence_id", s.EvidenceID,
	)
	return &s, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSession)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Session], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSession)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

type advanceResult struct {
	session Session
	step    ledger.Step
}

// Advance appends the ledger step and moves the stage pointer in one
// transaction. The UPDATE is guarded on the current stage and active
// status, so a racing or repeated submission fails without mutating
// anything.
func (r *repo) Advance(ctx context.Context, cmd AdvanceCommand) (*Session, *ledger.Step, error) {
	nextStage := cmd.Stage
	nextStatus := StatusActive
	if cmd.NextStage != nil {
		nextStage = *cmd.NextStage
	} else {
		nextStatus = StatusCompleted
	}

	updateQ := fmt.Sprintf(`
		UPDATE sessions
		SET current_stage = $1, status = $2, latest_result = $3, updated_at = NOW()
		WHERE id = $4 AND current_stage = $5 AND status = 'active'
		RETURNING %s`, sessionColumns)

	res, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (advanceResult, error) {
		step, err := ledger.AppendTx(ctx, tx, cmd.Step)
		if err != nil {
			return advanceResult{}, err
		}

		args := []any{
			string(nextStage),
			string(nextStatus),
			normalizeJSON(cmd.LatestResult),
			cmd.SessionID,
			string(cmd.Stage),
		}

		s, err := repository.QueryOne(ctx, tx, updateQ, args, scanSession)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return advanceResult{}, ErrStaleStage
			}
			return advanceResult{}, fmt.Errorf("advance session: %w", err)
		}

		return advanceResult{session: s, step: *step}, nil
	})

	if err != nil {
		return nil, nil, r.classifyAdvanceError(ctx, cmd, err)
	}

	r.logger.Info("session advanced",
		"id", res.session.ID,
		"stage", cmd.Stage,
		"next_stage", res.session.CurrentStage,
		"status", res.session.Status,
	)
	return &res.session, &res.step, nil
}

// classifyAdvanceError refines a guarded-update miss into the precise
// domain error by re-reading the session outside the failed transaction.
func (r *repo) classifyAdvanceError(ctx context.Context, cmd AdvanceCommand, err error) error {
	if !errors.Is(err, ErrStaleStage) && !errors.Is(err, ledger.ErrDuplicate) {
		return err
	}

	s, findErr := r.Find(ctx, cmd.SessionID)
	if findErr != nil {
		if errors.Is(findErr, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.Status != StatusActive {
		return fmt.Errorf("%w: status %s", ErrNotActive, s.Status)
	}
	if s.CurrentStage != cmd.Stage {
		return fmt.Errorf("%w: session at %s, got %s", ErrStaleStage, s.CurrentStage, cmd.Stage)
	}
	return err
}

func (r *repo) MarkError(ctx context.Context, id uuid.UUID, reason string) (*Session, error) {
	q := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'error', error_reason = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'active'
		RETURNING %s`, sessionColumns)

	s, err := repository.QueryOne(ctx, r.db, q, []any{reason, id}, scanSession)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, findErr := r.Find(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, ErrNotActive
		}
		return nil, fmt.Errorf("mark session error: %w", err)
	}

	r.logger.Warn("session errored",
		"id", id,
		"reason", reason,
	)
	return &s, nil
}

func normalizeJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
