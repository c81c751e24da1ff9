package app

import (
	"net/http"
	"os"

	"github.com/budgetmate/budgetmate/internal/rest"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

const docsSpecRoute = "/api/docs/swagger.json"

// registerDocs serves the generated swagger.json and the swagger UI reading it.
func registerDocs(r *mux.Router, specPath string) {
	r.HandleFunc(docsSpecRoute, func(w http.ResponseWriter, req *http.Request) {
		if _, err := os.Stat(specPath); err != nil {
			rest.WriteError(w, http.StatusNotFound, "API docs not generated", "run go generate")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, req, specPath)
	}).Methods("GET")
	r.PathPrefix("/api/docs/").Handler(httpSwagger.Handler(httpSwagger.URL(docsSpecRoute))).Methods("GET")
}
