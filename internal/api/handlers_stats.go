package api

import (
	"net/http"
)

func (s *Server) handleUpstreamStats(w http.ResponseWriter, r *http.Request) {
	if s.client == nil || s.stats == nil {
		jsonError(w, "upstream stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.client.Model(),
		"stats": s.stats.Snapshot(),
	})
}
