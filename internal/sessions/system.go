package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/ledger"
	"github.com/cairnhq/cairn/pkg/pagination"
)

// System defines the storage contract for review sessions. The review
// engine composes it with the ledger and proposal generator; HTTP
// exposure lives with the engine rather than here.
type System interface {
	Create(ctx context.Context, cmd StartCommand) (*Session, error)
	Find(ctx context.Context, id uuid.UUID) (*Session, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Session], error)

	// Advance applies one stage decision atomically. Returns
	// ErrStaleStage when the session moved on, ErrNotActive when it is
	// terminal, and ledger.ErrDuplicate when the stage was already decided.
	Advance(ctx context.Context, cmd AdvanceCommand) (*Session, *ledger.Step, error)

	// MarkError flips an active session into the terminal error state.
	MarkError(ctx context.Context, id uuid.UUID, reason string) (*Session, error)
}
