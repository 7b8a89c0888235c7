package analyses

import (
	"net/url"

	"github.com/newslens/reframe/pkg/query"
	"github.com/newslens/reframe/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "analyses", "a").
	Project("id", "ID").
	Project("input_headline", "InputHeadline").
	Project("reframed_headline", "ReframedHeadline").
	Project("comparison_summary", "ComparisonSummary").
	Project("snapshots", "Snapshots").
	Project("correction", "Correction").
	Project("model_name", "ModelName").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for analysis queries.
// Nil fields are ignored. ModelName uses exact matching; the headline
// fields use case-insensitive contains matching.
type Filters struct {
	ModelName        *string `json:"model_name,omitempty"`
	InputHeadline    *string `json:"input_headline,omitempty"`
	ReframedHeadline *string `json:"reframed_headline,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ModelName", f.ModelName).
		WhereContains("InputHeadline", f.InputHeadline).
		WhereContains("ReframedHeadline", f.ReframedHeadline)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m := values.Get("model_name"); m != "" {
		f.ModelName = &m
	}

	if in := values.Get("input_headline"); in != "" {
		f.InputHeadline = &in
	}

	if rf := values.Get("reframed_headline"); rf != "" {
		f.ReframedHeadline = &rf
	}

	return f
}

func scanAnalysis(s repository.Scanner) (Analysis, error) {
	var a Analysis
	err := s.Scan(
		&a.ID,
		&a.InputHeadline,
		&a.ReframedHeadline,
		&a.ComparisonSummary,
		&a.Snapshots,
		&a.Correction,
		&a.ModelName,
		&a.CreatedAt,
	)
	return a, err
}
