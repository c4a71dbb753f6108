package evidence

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/pkg/pagination"
)

// System defines the public contract for evidence domain operations.
// RecordClassification is the write-back target for completed review
// sessions and is not exposed over HTTP.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Evidence], error)

	Find(ctx context.Context, id uuid.UUID) (*Evidence, error)
	Create(ctx context.Context, cmd CreateCommand) (*Evidence, error)
	Delete(ctx context.Context, id uuid.UUID) error

	MarkInReview(ctx context.Context, id uuid.UUID) (*Evidence, error)
	RecordClassification(ctx context.Context, id uuid.UUID, classification json.RawMessage) error
}
