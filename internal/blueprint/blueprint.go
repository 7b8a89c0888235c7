// Package blueprint loads and validates the declarative pipeline
// description: steps, edges, entry point, and analyzer prompts. It checks
// structural completeness only (every edge endpoint must name a defined
// step or the terminal marker) and leaves business semantics to the
// workflow that binds step ids to implementations.
package blueprint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newslens/reframe/internal/prompts"
	"github.com/newslens/reframe/pkg/pipeline"
)

// Blueprint describes a pipeline to be assembled at startup.
type Blueprint struct {
	Entry     string     `yaml:"entry"`
	StepLimit int        `yaml:"step_limit"`
	Steps     []Step     `yaml:"steps"`
	Edges     []Edge     `yaml:"edges"`
	Analyzers []Analyzer `yaml:"analyzers"`
}

// Step declares one node: a workflow-defined id and one of the three
// step kinds.
type Step struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
}

// Edge declares an unconditional transition between steps, or to "end".
type Edge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Analyzer declares one parallel analysis task. Instructions may be empty
// when a compiled-in default exists for the name.
type Analyzer struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions"`
}

// OutputField returns the state field the analyzer's result settles into.
func (a Analyzer) OutputField() string {
	return "analysis_" + a.Name
}

// Load reads a blueprint from a YAML file and validates it. An empty path
// returns the compiled-in default.
func Load(path string) (*Blueprint, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint: %w", err)
	}

	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}

	if err := bp.Validate(); err != nil {
		return nil, fmt.Errorf("validate blueprint %s: %w", path, err)
	}

	return &bp, nil
}

// Validate checks structural completeness. Violations are configuration
// errors: fatal at startup, before any run begins.
func (bp *Blueprint) Validate() error {
	if bp.Entry == "" {
		return fmt.Errorf("entry required")
	}
	if len(bp.Steps) == 0 {
		return fmt.Errorf("at least one step required")
	}

	ids := make(map[string]bool, len(bp.Steps))
	for _, s := range bp.Steps {
		if s.ID == "" {
			return fmt.Errorf("step id required")
		}
		if s.ID == pipeline.End {
			return fmt.Errorf("step id %q is reserved", pipeline.End)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		if _, err := pipeline.ParseKind(s.Kind); err != nil {
			return fmt.Errorf("step %q: %w", s.ID, err)
		}
		ids[s.ID] = true
	}

	if !ids[bp.Entry] {
		return fmt.Errorf("entry %q is not a defined step", bp.Entry)
	}

	for _, e := range bp.Edges {
		if !ids[e.From] {
			return fmt.Errorf("edge source %q is not a defined step", e.From)
		}
		if e.To != pipeline.End && !ids[e.To] {
			return fmt.Errorf("edge target %q is not a defined step or %q", e.To, pipeline.End)
		}
	}

	names := make(map[string]bool, len(bp.Analyzers))
	for _, a := range bp.Analyzers {
		if a.Name == "" {
			return fmt.Errorf("analyzer name required")
		}
		if names[a.Name] {
			return fmt.Errorf("duplicate analyzer %q", a.Name)
		}
		names[a.Name] = true

		if a.Instructions == "" {
			if _, ok := prompts.AnalyzerInstructions(a.Name); !ok {
				return fmt.Errorf("analyzer %q has no instructions and no default", a.Name)
			}
		}
	}

	return nil
}

// AnalyzerTasks returns the analyzers with instruction defaults applied.
func (bp *Blueprint) AnalyzerTasks() []Analyzer {
	tasks := make([]Analyzer, 0, len(bp.Analyzers))
	for _, a := range bp.Analyzers {
		if a.Instructions == "" {
			a.Instructions, _ = prompts.AnalyzerInstructions(a.Name)
		}
		tasks = append(tasks, a)
	}
	return tasks
}

// Default returns the compiled-in reframe pipeline: anonymize, fan out the
// default analyzers, synthesize, revert, collect, persist.
func Default() *Blueprint {
	analyzers := make([]Analyzer, 0, 3)
	for _, name := range prompts.DefaultAnalyzers() {
		analyzers = append(analyzers, Analyzer{Name: name})
	}

	return &Blueprint{
		Entry: "anonymize",
		Steps: []Step{
			{ID: "anonymize", Kind: string(pipeline.KindFunction)},
			{ID: "analyze", Kind: string(pipeline.KindParallelGroup)},
			{ID: "synthesize", Kind: string(pipeline.KindGeneration)},
			{ID: "revert", Kind: string(pipeline.KindFunction)},
			{ID: "revert_alternates", Kind: string(pipeline.KindFunction)},
			{ID: "collect", Kind: string(pipeline.KindFunction)},
			{ID: "persist", Kind: string(pipeline.KindFunction)},
		},
		Edges: []Edge{
			{From: "anonymize", To: "analyze"},
			{From: "analyze", To: "synthesize"},
			{From: "synthesize", To: "revert"},
			{From: "revert", To: "revert_alternates"},
			{From: "revert_alternates", To: "collect"},
			{From: "collect", To: "persist"},
			{From: "persist", To: pipeline.End},
		},
		Analyzers: analyzers,
	}
}
