package analyses

import (
	"errors"
	"net/http"

	"github.com/newslens/reframe/internal/workflow"
	"github.com/newslens/reframe/pkg/pipeline"
)

// Domain errors for analysis operations.
var (
	ErrNotFound     = errors.New("analysis not found")
	ErrDuplicate    = errors.New("analysis already exists")
	ErrInvalidInput = errors.New("invalid analysis input")
)

// MapHTTPStatus maps analysis domain errors to appropriate HTTP status codes.
// Pipeline run failures map to 502 since the upstream generation service is
// the usual culprit.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, workflow.ErrEmptyHeadline) {
		return http.StatusBadRequest
	}

	var runErr *pipeline.RunError
	if errors.As(err, &runErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
