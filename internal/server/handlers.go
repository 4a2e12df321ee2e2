package server

import (
	"net/http"
	"strconv"
	"strings"
)

// handleHealth reports liveness and the number of loaded buildings.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.svc.Health())
}

func (s *Server) handleListBuildings(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.svc.ListBuildings())
}

func (s *Server) handleGetBuilding(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetBuilding(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, detail)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.svc.GetSummary())
}

func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.PathValue("id"))
	clusterID, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "cluster_id", Message: "must be an integer, got " + strconv.Quote(raw)})
		return
	}

	stats, err := s.svc.GetCluster(clusterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}
