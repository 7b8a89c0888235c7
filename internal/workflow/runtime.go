package workflow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/newslens/reframe/internal/blueprint"
	"github.com/newslens/reframe/pkg/generation"
	"github.com/newslens/reframe/pkg/storage"
)

// Recorder persists a completed analysis. The workflow depends on this
// narrow contract rather than the analyses system so the dependency flows
// one way.
type Recorder interface {
	Record(ctx context.Context, cmd RecordCommand) (uuid.UUID, error)
}

// RecordCommand is the persistence package assembled by the collect step.
type RecordCommand struct {
	InputHeadline     string          `json:"input_headline"`
	ReframedHeadline  string          `json:"reframed_headline"`
	ComparisonSummary string          `json:"comparison_summary"`
	Snapshots         json.RawMessage `json:"snapshots"`
	ModelName         string          `json:"model_name"`
}

// SaveStatus reports the outcome of the persistence step. A failed save
// never fails the run; it is carried here instead.
type SaveStatus struct {
	Saved   bool       `json:"saved"`
	Message string     `json:"message,omitempty"`
	ID      *uuid.UUID `json:"id,omitempty"`
}

// Runtime carries the collaborators a pipeline run needs. The blueprint
// decides which steps exist; the runtime supplies their dependencies.
type Runtime struct {
	Caller    generation.Caller
	Options   generation.Options
	Recorder  Recorder
	Archive   storage.System
	Blueprint *blueprint.Blueprint
	ModelName string
	Logger    *slog.Logger
}
