package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/teascroll/internal/dataset"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Get(r.Context()))
}

func (s *Server) handleDatasetSection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "section")
	v, ok := s.cache.Get(r.Context()).Section(name)
	if !ok {
		msg := fmt.Sprintf("unknown dataset section %q (known: %s)", name, strings.Join(dataset.SectionNames, ", "))
		jsonError(w, msg, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleDatasetStatus reports how each source fared in the last load,
// loading first if nothing has been attempted yet.
func (s *Server) handleDatasetStatus(w http.ResponseWriter, r *http.Request) {
	s.cache.Get(r.Context())
	writeJSON(w, http.StatusOK, s.cache.Report())
}
