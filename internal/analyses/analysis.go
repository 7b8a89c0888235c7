// Package analyses implements the headline analysis domain. It owns the
// persisted record of each pipeline run, drives new runs through the
// workflow, and exposes retrieval, search, and correction operations.
package analyses

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Analysis is the persisted record of one pipeline run. Snapshots holds
// the raw per-analyzer outputs and intermediate state as a JSON document.
type Analysis struct {
	ID                uuid.UUID       `json:"id"`
	InputHeadline     string          `json:"input_headline"`
	ReframedHeadline  string          `json:"reframed_headline"`
	ComparisonSummary string          `json:"comparison_summary"`
	Snapshots         json.RawMessage `json:"snapshots"`
	Correction        *string         `json:"correction"`
	ModelName         string          `json:"model_name"`
	CreatedAt         time.Time       `json:"created_at"`
}

// AnalyzeCommand carries the input headline for a new pipeline run.
type AnalyzeCommand struct {
	Headline string `json:"headline"`
}

// CorrectCommand carries a human-supplied corrected headline for an
// existing analysis.
type CorrectCommand struct {
	Correction string `json:"correction"`
}
