package analyses

import (
	"context"

	"github.com/google/uuid"

	"github.com/newslens/reframe/internal/workflow"
	"github.com/newslens/reframe/pkg/pagination"
)

// System defines the public contract for analysis domain operations.
type System interface {
	Handler() *Handler

	// Analyze runs the full pipeline over a headline. The run persists its
	// own record through the workflow's persistence step; a failed save is
	// reported in the result rather than as an error.
	Analyze(ctx context.Context, headline string) (*workflow.Result, error)

	// Record persists a completed run. It also backs the workflow's
	// recorder contract.
	Record(ctx context.Context, cmd workflow.RecordCommand) (*Analysis, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Analysis], error)

	Find(ctx context.Context, id uuid.UUID) (*Analysis, error)
	Correct(ctx context.Context, id uuid.UUID, correction string) (*Analysis, error)
}
