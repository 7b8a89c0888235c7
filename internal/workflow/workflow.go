// Package workflow assembles and runs the headline reframing pipeline:
// anonymize the input, fan out to the configured analyzers, synthesize a
// flipped headline, restore placeholder tokens, and persist the record.
// The blueprint decides the shape of the graph; this package binds each
// step id to its implementation.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/newslens/reframe/internal/blueprint"
	"github.com/newslens/reframe/pkg/pipeline"
)

// Result is the outcome of one pipeline run.
type Result struct {
	InputHeadline      string            `json:"input_headline"`
	AnonymizedHeadline string            `json:"anonymized_headline"`
	Placeholders       map[string]string `json:"placeholders"`
	Analyses           map[string]any    `json:"analyses"`
	AnalysisFailures   map[string]bool   `json:"analysis_failures"`
	ComparisonSummary  string            `json:"comparison_summary"`
	ReframedHeadline   string            `json:"reframed_headline"`
	AlternateHeadlines map[string]string `json:"alternate_headlines"`
	SaveStatus         SaveStatus        `json:"db_save_status"`
	ModelName          string            `json:"model_name"`
	CompletedAt        time.Time         `json:"completed_at"`
}

// Execute runs the blueprint pipeline over a single headline. Structural
// problems (an unknown step id, a kind mismatch, a malformed graph) fail
// before any step runs; mid-run failures surface as a *pipeline.RunError
// carrying the partial state.
func Execute(ctx context.Context, rt *Runtime, headline string) (*Result, error) {
	if strings.TrimSpace(headline) == "" {
		return nil, ErrEmptyHeadline
	}

	if rt.Blueprint == nil {
		rt.Blueprint = blueprint.Default()
	}
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}

	runner, err := buildRunner(rt)
	if err != nil {
		return nil, err
	}

	initial, err := runner.NewState().Apply(pipeline.Delta{FieldInputHeadline: headline})
	if err != nil {
		return nil, err
	}

	final, err := runner.Run(ctx, initial)
	if err != nil {
		return nil, err
	}

	return buildResult(rt, final), nil
}

func buildRunner(rt *Runtime) (*pipeline.Runner, error) {
	bp := rt.Blueprint

	graph := pipeline.NewGraph()
	for _, spec := range bp.Steps {
		step, err := buildStep(rt, spec)
		if err != nil {
			return nil, err
		}
		if string(step.Kind()) != spec.Kind {
			return nil, fmt.Errorf("%w: %s declared as %s, implemented as %s",
				ErrKindMismatch, spec.ID, spec.Kind, step.Kind())
		}
		if err := graph.AddStep(step); err != nil {
			return nil, err
		}
	}

	for _, e := range bp.Edges {
		if err := graph.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}

	if err := graph.SetEntryPoint(bp.Entry); err != nil {
		return nil, err
	}

	return pipeline.NewRunner(graph, Channels(bp), bp.StepLimit, rt.Logger)
}

func buildResult(rt *Runtime, s pipeline.State) *Result {
	result := &Result{
		Analyses:    make(map[string]any, len(rt.Blueprint.Analyzers)),
		ModelName:   rt.ModelName,
		CompletedAt: time.Now().UTC(),
	}

	result.InputHeadline, _ = s.Get(FieldInputHeadline).(string)
	result.AnonymizedHeadline, _ = s.Get(FieldAnonymizedHeadline).(string)
	result.Placeholders, _ = s.Get(FieldPlaceholderMap).(map[string]string)
	result.AnalysisFailures, _ = s.Get(FieldAnalysisFailures).(map[string]bool)
	result.ComparisonSummary, _ = s.Get(FieldComparisonSummary).(string)
	result.ReframedHeadline, _ = s.Get(FieldReframedHeadline).(string)
	result.AlternateHeadlines, _ = s.Get(FieldAlternateHeadlines).(map[string]string)
	result.SaveStatus, _ = s.Get(FieldSaveStatus).(SaveStatus)

	for _, a := range rt.Blueprint.Analyzers {
		if v, ok := s.Lookup(a.OutputField()); ok {
			result.Analyses[a.Name] = v
		}
	}

	return result
}
