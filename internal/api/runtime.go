package api

import (
	"fmt"

	"github.com/newslens/reframe/internal/blueprint"
	"github.com/newslens/reframe/internal/config"
	"github.com/newslens/reframe/internal/infrastructure"
	"github.com/newslens/reframe/pkg/generation"
	"github.com/newslens/reframe/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration: the
// validated pipeline blueprint, per-call generation options, and
// pagination limits.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	CallOptions generation.Options
	Blueprint   *blueprint.Blueprint
	ModelName   string
}

// NewRuntime creates an API runtime with a module-scoped logger and the
// blueprint resolved from configuration.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	bp, err := blueprint.Load(cfg.Pipeline.BlueprintPath)
	if err != nil {
		return nil, fmt.Errorf("load blueprint: %w", err)
	}

	if bp.StepLimit == 0 {
		bp.StepLimit = cfg.Pipeline.StepLimit
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:  infra.Lifecycle,
			Logger:     infra.Logger.With("module", "api"),
			Database:   infra.Database,
			Storage:    infra.Storage,
			Generation: infra.Generation,
		},
		Pagination:  cfg.API.Pagination,
		CallOptions: cfg.Generation.Options(),
		Blueprint:   bp,
		ModelName:   cfg.Generation.Model,
	}, nil
}
