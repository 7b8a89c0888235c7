package analyses

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/newslens/reframe/internal/blueprint"
	"github.com/newslens/reframe/internal/workflow"
	"github.com/newslens/reframe/pkg/generation"
	"github.com/newslens/reframe/pkg/pagination"
	"github.com/newslens/reframe/pkg/query"
	"github.com/newslens/reframe/pkg/repository"
	"github.com/newslens/reframe/pkg/storage"
)

type repo struct {
	db          *sql.DB
	caller      generation.Caller
	callOptions generation.Options
	archive     storage.System
	blueprint   *blueprint.Blueprint
	modelName   string
	logger      *slog.Logger
	pagination  pagination.Config
}

// New creates an analysis repository implementing the System interface.
func New(
	db *sql.DB,
	caller generation.Caller,
	callOptions generation.Options,
	archive storage.System,
	bp *blueprint.Blueprint,
	modelName string,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:          db,
		caller:      caller,
		callOptions: callOptions,
		archive:     archive,
		blueprint:   bp,
		modelName:   modelName,
		logger:      logger.With("system", "analyses"),
		pagination:  pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// recorder adapts the repository to the workflow's persistence contract.
type recorder struct {
	sys *repo
}

func (a recorder) Record(ctx context.Context, cmd workflow.RecordCommand) (uuid.UUID, error) {
	rec, err := a.sys.Record(ctx, cmd)
	if err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

func (r *repo) Analyze(ctx context.Context, headline string) (*workflow.Result, error) {
	rt := &workflow.Runtime{
		Caller:    r.caller,
		Options:   r.callOptions,
		Recorder:  recorder{sys: r},
		Archive:   r.archive,
		Blueprint: r.blueprint,
		ModelName: r.modelName,
		Logger:    r.logger,
	}

	result, err := workflow.Execute(ctx, rt, headline)
	if err != nil {
		return nil, err
	}

	r.logger.Info("analysis complete",
		"headline", headline,
		"saved", result.SaveStatus.Saved,
	)
	return result, nil
}

func (r *repo) Record(ctx context.Context, cmd workflow.RecordCommand) (*Analysis, error) {
	if strings.TrimSpace(cmd.InputHeadline) == "" || strings.TrimSpace(cmd.ReframedHeadline) == "" {
		return nil, fmt.Errorf("%w: input and reframed headlines required", ErrInvalidInput)
	}

	snapshots := []byte(cmd.Snapshots)
	if len(snapshots) == 0 {
		snapshots = []byte("{}")
	}

	q := `
		INSERT INTO analyses(id, input_headline, reframed_headline, comparison_summary, snapshots, model_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, input_headline, reframed_headline, comparison_summary, snapshots, correction, model_name, created_at`

	insertArgs := []any{
		uuid.New(),
		cmd.InputHeadline,
		cmd.ReframedHeadline,
		cmd.ComparisonSummary,
		snapshots,
		cmd.ModelName,
	}

	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Analysis, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanAnalysis)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("analysis recorded", "id", rec.ID, "model", rec.ModelName)
	return &rec, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Analysis], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "InputHeadline", "ReframedHeadline")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAnalysis)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanAnalysis)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) Correct(ctx context.Context, id uuid.UUID, correction string) (*Analysis, error) {
	if strings.TrimSpace(correction) == "" {
		return nil, fmt.Errorf("%w: correction required", ErrInvalidInput)
	}

	q := `
		UPDATE analyses
		SET correction = $2
		WHERE id = $1
		RETURNING id, input_headline, reframed_headline, comparison_summary, snapshots, correction, model_name, created_at`

	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Analysis, error) {
		return repository.QueryOne(ctx, tx, q, []any{id, correction}, scanAnalysis)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("analysis corrected", "id", id)
	return &rec, nil
}
