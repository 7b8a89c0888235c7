package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/newslens/reframe/internal/blueprint"
	"github.com/newslens/reframe/internal/prompts"
	"github.com/newslens/reframe/pkg/anonymize"
	"github.com/newslens/reframe/pkg/generation"
	"github.com/newslens/reframe/pkg/pipeline"
)

// Markers substituted for results that never materialized. They keep the
// persisted record total even when generation stages fail.
const (
	missingMarker       = "[missing]"
	notApplicableMarker = "not applicable"
)

// buildStep returns the implementation bound to a blueprint step id.
func buildStep(rt *Runtime, spec blueprint.Step) (pipeline.Step, error) {
	switch spec.ID {
	case "anonymize":
		return anonymizeStep(rt)
	case "analyze":
		return analyzeStep(rt)
	case "synthesize":
		return synthesizeStep(rt)
	case "revert":
		return revertStep()
	case "revert_alternates":
		return revertAlternatesStep(rt)
	case "collect":
		return collectStep(rt)
	case "persist":
		return persistStep(rt)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStep, spec.ID)
}

// anonymizeStep strips proper nouns from the input headline before any
// analysis sees it. The codec degrades to a pass-through on failure, so
// this step only errors on missing input.
func anonymizeStep(rt *Runtime) (pipeline.Step, error) {
	instructions, err := prompts.Instructions(prompts.StageAnonymize)
	if err != nil {
		return nil, err
	}

	codec := anonymize.NewCodec(rt.Caller, instructions, rt.Options, rt.Logger)

	return pipeline.NewFunctionStep("anonymize", func(ctx context.Context, s pipeline.State) (pipeline.Delta, error) {
		headline, _ := s.Get(FieldInputHeadline).(string)
		if headline == "" {
			return nil, ErrEmptyHeadline
		}

		result := codec.Anonymize(ctx, headline)
		return pipeline.Delta{
			FieldAnonymizedHeadline: result.Text,
			FieldPlaceholderMap:     result.Placeholders,
		}, nil
	})
}

// analyzeStep fans the anonymized headline out to every blueprint analyzer
// concurrently. Failed analyzers settle as FailureResult values.
func analyzeStep(rt *Runtime) (pipeline.Step, error) {
	analyzers := rt.Blueprint.AnalyzerTasks()

	tasks := make([]pipeline.Task, 0, len(analyzers))
	for _, a := range analyzers {
		instructions := a.Instructions
		tasks = append(tasks, pipeline.Task{
			Name:        a.Name,
			OutputField: a.OutputField(),
			Options:     rt.Options,
			Messages: func(s pipeline.State) ([]generation.Message, error) {
				headline, _ := s.Get(FieldAnonymizedHeadline).(string)
				if headline == "" {
					return nil, fmt.Errorf("no headline available to analyze")
				}
				return []generation.Message{
					generation.System(instructions),
					generation.User(headline),
				}, nil
			},
		})
	}

	return pipeline.NewParallelGroup("analyze", rt.Caller, tasks)
}

// synthesizeStep compiles the analyzer outcomes into one digest and asks
// for a comparison summary plus a flipped headline. It runs regardless of
// how many analyzers failed; failures appear in the digest as such.
func synthesizeStep(rt *Runtime) (pipeline.Step, error) {
	instructions, err := prompts.Instructions(prompts.StageSynthesize)
	if err != nil {
		return nil, err
	}

	analyzers := rt.Blueprint.AnalyzerTasks()

	messages := func(s pipeline.State) ([]generation.Message, error) {
		digest := map[string]any{
			"headline": s.Get(FieldAnonymizedHeadline),
			"analyses": analysisDigest(s, analyzers),
		}

		body, err := json.MarshalIndent(digest, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode analysis digest: %w", err)
		}

		return []generation.Message{
			generation.System(instructions),
			generation.User(string(body)),
		}, nil
	}

	return pipeline.NewGenerationStep("synthesize", rt.Caller, messages, rt.Options, FieldSynthesisResult)
}

func analysisDigest(s pipeline.State, analyzers []blueprint.Analyzer) map[string]any {
	digest := make(map[string]any, len(analyzers))
	for _, a := range analyzers {
		v, ok := s.Lookup(a.OutputField())
		if !ok {
			digest[a.Name] = map[string]any{"failed": true, "error": "analysis never ran"}
			continue
		}
		if fail, failed := generation.AsFailure(v); failed {
			digest[a.Name] = map[string]any{"failed": true, "error": fail.Error}
			continue
		}
		digest[a.Name] = v
	}
	return digest
}

// revertStep restores placeholder tokens in the synthesis outputs. A
// failed or malformed synthesis yields empty strings here; collect
// substitutes the missing markers.
func revertStep() (pipeline.Step, error) {
	return pipeline.NewFunctionStep("revert", func(_ context.Context, s pipeline.State) (pipeline.Delta, error) {
		placeholders, _ := s.Get(FieldPlaceholderMap).(map[string]string)
		flipped, summary := synthesisOutputs(s)

		delta := pipeline.Delta{
			FieldReframedHeadline:  "",
			FieldComparisonSummary: "",
		}
		if flipped != "" {
			delta[FieldReframedHeadline] = anonymize.Revert(flipped, placeholders).Text
		}
		if summary != "" {
			delta[FieldComparisonSummary] = anonymize.Revert(summary, placeholders).Text
		}
		return delta, nil
	})
}

func synthesisOutputs(s pipeline.State) (flipped, summary string) {
	v, ok := s.Lookup(FieldSynthesisResult)
	if !ok {
		return "", ""
	}
	if _, failed := generation.AsFailure(v); failed {
		return "", ""
	}

	result, ok := v.(map[string]any)
	if !ok {
		return "", ""
	}

	flipped, _ = result["flipped_headline"].(string)
	summary, _ = result["comparison_summary"].(string)
	return flipped, summary
}

// revertAlternatesStep restores placeholder tokens in each analyzer's
// alternate headline. Analyzers that failed or returned no alternate are
// marked not applicable.
func revertAlternatesStep(rt *Runtime) (pipeline.Step, error) {
	analyzers := rt.Blueprint.AnalyzerTasks()

	return pipeline.NewFunctionStep("revert_alternates", func(_ context.Context, s pipeline.State) (pipeline.Delta, error) {
		placeholders, _ := s.Get(FieldPlaceholderMap).(map[string]string)

		alternates := make(map[string]string, len(analyzers))
		for _, a := range analyzers {
			alternates[a.Name] = notApplicableMarker

			v, ok := s.Lookup(a.OutputField())
			if !ok {
				continue
			}
			if _, failed := generation.AsFailure(v); failed {
				continue
			}

			result, ok := v.(map[string]any)
			if !ok {
				continue
			}
			alternate, _ := result["alternate_headline"].(string)
			if alternate == "" {
				continue
			}

			alternates[a.Name] = anonymize.Revert(alternate, placeholders).Text
		}

		return pipeline.Delta{FieldAlternateHeadlines: alternates}, nil
	})
}

// collectStep normalizes the run into its persisted shape: per-analyzer
// failure flags, missing markers for absent synthesis outputs, and the
// record command the persist step will hand to the recorder.
func collectStep(rt *Runtime) (pipeline.Step, error) {
	analyzers := rt.Blueprint.AnalyzerTasks()

	return pipeline.NewFunctionStep("collect", func(_ context.Context, s pipeline.State) (pipeline.Delta, error) {
		failures := make(map[string]bool, len(analyzers))
		analyses := make(map[string]any, len(analyzers))
		for _, a := range analyzers {
			v, ok := s.Lookup(a.OutputField())
			if !ok {
				failures[a.Name] = true
				continue
			}
			if fail, failed := generation.AsFailure(v); failed {
				failures[a.Name] = true
				analyses[a.Name] = fail
				continue
			}
			failures[a.Name] = false
			analyses[a.Name] = v
		}

		reframed, _ := s.Get(FieldReframedHeadline).(string)
		if reframed == "" {
			reframed = missingMarker
		}
		summary, _ := s.Get(FieldComparisonSummary).(string)
		if summary == "" {
			summary = missingMarker
		}

		snapshot := map[string]any{
			"anonymized_headline": s.Get(FieldAnonymizedHeadline),
			"placeholders":        s.Get(FieldPlaceholderMap),
			"analyses":            analyses,
			"analysis_failures":   failures,
			"alternate_headlines": s.Get(FieldAlternateHeadlines),
		}
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("encode snapshots: %w", err)
		}

		input, _ := s.Get(FieldInputHeadline).(string)

		return pipeline.Delta{
			FieldAnalysisFailures:  failures,
			FieldReframedHeadline:  reframed,
			FieldComparisonSummary: summary,
			FieldRecordPackage: RecordCommand{
				InputHeadline:     input,
				ReframedHeadline:  reframed,
				ComparisonSummary: summary,
				Snapshots:         raw,
				ModelName:         rt.ModelName,
			},
		}, nil
	})
}

// persistStep hands the record command to the recorder and reports the
// outcome as state. A failed save degrades the save status; it never
// fails the run.
func persistStep(rt *Runtime) (pipeline.Step, error) {
	logger := rt.Logger.With("module", "workflow")

	return pipeline.NewFunctionStep("persist", func(ctx context.Context, s pipeline.State) (pipeline.Delta, error) {
		var status SaveStatus

		cmd, ok := s.Get(FieldRecordPackage).(RecordCommand)
		switch {
		case !ok:
			status.Message = "no record package collected"
		case rt.Recorder == nil:
			status.Message = "no recorder configured"
		default:
			id, err := rt.Recorder.Record(ctx, cmd)
			if err != nil {
				logger.Warn("analysis save failed", "error", err)
				status.Message = err.Error()
			} else {
				status.Saved = true
				status.ID = &id
			}
		}

		archiveTranscript(ctx, rt, s, status, logger)

		return pipeline.Delta{FieldSaveStatus: status}, nil
	})
}

// archiveTranscript uploads the full run state as a JSON blob when
// archival is enabled. Archival is best-effort.
func archiveTranscript(ctx context.Context, rt *Runtime, s pipeline.State, status SaveStatus, logger *slog.Logger) {
	if rt.Archive == nil || !rt.Archive.Enabled() {
		return
	}

	transcript := s.Values()
	transcript[FieldSaveStatus] = status

	body, err := json.Marshal(transcript)
	if err != nil {
		logger.Warn("transcript encoding failed", "error", err)
		return
	}

	key := "runs/" + uuid.NewString() + ".json"
	if status.ID != nil {
		key = "runs/" + status.ID.String() + ".json"
	}

	if err := rt.Archive.Upload(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		logger.Warn("transcript archival failed", "key", key, "error", err)
		return
	}

	logger.Info("transcript archived", "key", key)
}
