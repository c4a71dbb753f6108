package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/stages"
	"github.com/cairnhq/cairn/pkg/repository"
)

// System defines read access to the decision trail. Writes go through
// AppendTx so they share the caller's transaction with the session
// stage advance.
type System interface {
	EntriesFor(ctx context.Context, sessionID uuid.UUID) ([]Step, error)
	FindStep(ctx context.Context, sessionID uuid.UUID, stage stages.Stage) (*Step, error)
}

const stepColumns = `id, session_id, stage, model_output, human_input,
		decided_output, reviewer_id, decided_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a ledger repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "ledger"),
	}
}

// EntriesFor returns every decided step of a session in decision order.
func (r *repo) EntriesFor(ctx context.Context, sessionID uuid.UUID) ([]Step, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM steps
		WHERE session_id = $1
		ORDER BY decided_at ASC, id ASC`, stepColumns)

	steps, err := repository.QueryMany(ctx, r.db, q, []any{sessionID}, scanStep)
	if err != nil {
		return nil, fmt.Errorf("query session steps: %w", err)
	}
	return steps, nil
}

// FindStep returns the decided step for one stage of a session.
func (r *repo) FindStep(
	ctx context.Context,
	sessionID uuid.UUID,
	stage stages.Stage,
) (*Step, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM steps
		WHERE session_id = $1 AND stage = $2`, stepColumns)

	s, err := repository.QueryOne(ctx, r.db, q, []any{sessionID, string(stage)}, scanStep)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

// AppendTx inserts a ledger entry inside the caller's transaction.
// The UNIQUE(session_id, stage) constraint maps to ErrDuplicate when
// the stage was already decided.
func AppendTx(ctx context.Context, tx *sql.Tx, cmd AppendCommand) (*Step, error) {
	q := fmt.Sprintf(`
		INSERT INTO steps(
			session_id, stage, model_output, human_input,
			decided_output, reviewer_id
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, stepColumns)

	args := []any{
		cmd.SessionID,
		string(cmd.Stage),
		normalizeJSON(cmd.ModelOutput),
		normalizeJSON(cmd.HumanInput),
		normalizeJSON(cmd.DecidedOutput),
		cmd.ReviewerID,
	}

	s, err := repository.QueryOne(ctx, tx, q, args, scanStep)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func scanStep(s repository.Scanner) (Step, error) {
	var step Step
	err := s.Scan(
		&step.ID,
		&step.SessionID,
		&step.Stage,
		&step.ModelOutput,
		&step.HumanInput,
		&step.DecidedOutput,
		&step.ReviewerID,
		&step.DecidedAt,
	)
	return step, err
}

// normalizeJSON substitutes an explicit null for empty payloads so the
// jsonb columns never receive invalid input.
func normalizeJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
