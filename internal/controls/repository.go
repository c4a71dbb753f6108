package controls

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/pkg/pagination"
	"github.com/cairnhq/cairn/pkg/query"
	"github.com/cairnhq/cairn/pkg/repository"
)

// specCacheTTL bounds how stale the specification corpus may get between
// catalog writes and candidate scoring.
const specCacheTTL = 15 * time.Minute

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config

	mu          sync.Mutex
	specCache   []SpecEntry
	specFetched time.Time
}

// New creates a control repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "controls"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Control], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Code", "Label")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count controls: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanControl)
	if err != nil {
		return nil, fmt.Errorf("query controls: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Control, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanControl)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) FindByCode(ctx context.Context, code string) (*Control, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("Code", &code).
		BuildSingleOrNull()

	c, err := repository.QueryOne(ctx, r.db, q, args, scanControl)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Control, error) {
	if cmd.Code == "" || cmd.Label == "" {
		return nil, fmt.Errorf("%w: code and label are required", ErrInvalid)
	}

	insertQ := `
		INSERT INTO controls(code, label, position)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM controls))
		RETURNING id, code, label, position, created_at`

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Control, error) {
		ctl, err := repository.QueryOne(ctx, tx, insertQ, []any{cmd.Code, cmd.Label}, scanControl)
		if err != nil {
			return Control{}, fmt.Errorf("insert control: %w", err)
		}

		if cmd.Specification != "" {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO control_specs(control_id, specification) VALUES ($1, $2)",
				ctl.ID, cmd.Specification,
			); err != nil {
				return Control{}, fmt.Errorf("insert control spec: %w", err)
			}
		}

		return ctl, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.invalidateSpecs()

	r.logger.Info("control created",
		"id", c.ID,
		"code", c.Code,
	)
	return &c, nil
}

// Specs returns the specification corpus, refreshing the cache when it
// has aged past specCacheTTL. Entries are ordered by catalog position so
// tie-breaking downstream stays deterministic.
func (r *repo) Specs(ctx context.Context) ([]SpecEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.specCache != nil && time.Since(r.specFetched) < specCacheTTL {
		return r.specCache, nil
	}

	specsQ := `
		SELECT s.id, s.control_id, c.code, c.label, c.position, s.specification
		FROM control_specs s
		JOIN controls c ON c.id = s.control_id
		ORDER BY c.position ASC`

	entries, err := repository.QueryMany(ctx, r.db, specsQ, nil, scanSpecEntry)
	if err != nil {
		return nil, fmt.Errorf("query control specs: %w", err)
	}

	r.specCache = entries
	r.specFetched = time.Now()

	r.logger.Debug("control specs refreshed", "count", len(entries))
	return entries, nil
}

func (r *repo) invalidateSpecs() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specCache = nil
}
