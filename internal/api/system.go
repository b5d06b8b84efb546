package api

import (
	"net/http"
	"time"
)

// startTime records process start for uptime reporting.
var startTime = time.Now()

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Things  int    `json:"things"`
	Items   int    `json:"items"`
	Links   int    `json:"links"`
}

// handleHealth reports server liveness and registry sizes.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Things:  len(s.things.GetAll()),
		Items:   len(s.items.GetAll()),
		Links:   len(s.links.Links()),
	})
}
