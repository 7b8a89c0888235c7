package api

import (
	"github.com/newslens/reframe/internal/analyses"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Analyses analyses.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	analysesSystem := analyses.New(
		runtime.Database.Connection(),
		runtime.Generation,
		runtime.CallOptions,
		runtime.Storage,
		runtime.Blueprint,
		runtime.ModelName,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Analyses: analysesSystem,
	}
}
