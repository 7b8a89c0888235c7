// Package prompts defines the instruction text and reply contracts for
// each pipeline stage. Stage instructions are compiled-in defaults; the
// pipeline blueprint may override analyzer instructions per analyzer.
package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidStage indicates an unrecognized stage value.
	ErrInvalidStage = errors.New("invalid pipeline stage")
	// ErrNoStagePrompt indicates a stage whose instructions are not held
	// at the stage level.
	ErrNoStagePrompt = errors.New("stage has no stage-level prompt")
)

// Stage identifies a pipeline stage that carries prompt instructions.
type Stage string

// Valid pipeline stages.
const (
	StageAnonymize  Stage = "anonymize"
	StageAnalyze    Stage = "analyze"
	StageSynthesize Stage = "synthesize"
)

var stages = []Stage{
	StageAnonymize,
	StageAnalyze,
	StageSynthesize,
}

// Stages returns the list of valid pipeline stages.
func Stages() []Stage {
	return stages
}

// ParseStage validates a string as a known pipeline stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Instructions returns the default instructions for a stage that carries
// a single prompt (anonymize, synthesize). The analyze stage has no stage
// prompt of its own; its instructions resolve per analyzer through
// AnalyzerInstructions, so requesting it here reports ErrNoStagePrompt.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoStagePrompt, stage)
	}
	return text, nil
}
