package api

import (
	"net/http"

	"github.com/newslens/reframe/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Analyses.Handler().Routes(),
	)
}
