package controls

import (
	"context"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/pkg/pagination"
)

// System defines the public contract for control catalog operations.
// Specs serves the full specification corpus from a short-lived cache;
// candidate scoring calls it on every proposal.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Control], error)

	Find(ctx context.Context, id uuid.UUID) (*Control, error)
	FindByCode(ctx context.Context, code string) (*Control, error)
	Create(ctx context.Context, cmd CreateCommand) (*Control, error)
	Specs(ctx context.Context) ([]SpecEntry, error)
}
