package workflow

import (
	"github.com/newslens/reframe/internal/blueprint"
	"github.com/newslens/reframe/pkg/pipeline"
)

// State fields threaded through a run. Analyzer outputs are registered
// dynamically as analysis_<name> alongside these.
const (
	FieldInputHeadline      = "input_headline"
	FieldAnonymizedHeadline = "anonymized_headline"
	FieldPlaceholderMap     = "placeholder_map"
	FieldSynthesisResult    = "synthesis_result"
	FieldComparisonSummary  = "comparison_summary"
	FieldReframedHeadline   = "reframed_headline"
	FieldAlternateHeadlines = "alternate_headlines"
	FieldAnalysisFailures   = "analysis_failures"
	FieldRecordPackage      = "record_package"
	FieldSaveStatus         = "db_save_status"
)

// Channels builds the state registry for a blueprint. Every field is
// last-write-wins: each is produced by exactly one step, so no merge
// conflict can arise.
func Channels(bp *blueprint.Blueprint) pipeline.Channels {
	channels := pipeline.Channels{
		FieldInputHeadline:      pipeline.Replace(),
		FieldAnonymizedHeadline: pipeline.Replace(),
		FieldSynthesisResult:    pipeline.Replace(),
		FieldComparisonSummary:  pipeline.Replace(),
		FieldReframedHeadline:   pipeline.Replace(),
		FieldRecordPackage:      pipeline.Replace(),
		FieldSaveStatus:         pipeline.Replace(),

		FieldPlaceholderMap: pipeline.ReplaceDefault(func() any {
			return map[string]string{}
		}),
		FieldAlternateHeadlines: pipeline.ReplaceDefault(func() any {
			return map[string]string{}
		}),
		FieldAnalysisFailures: pipeline.ReplaceDefault(func() any {
			return map[string]bool{}
		}),
	}

	for _, a := range bp.Analyzers {
		channels[a.OutputField()] = pipeline.Replace()
	}

	return channels
}
