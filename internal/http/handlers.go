package http

import (
	"encoding/json"
	"net/http"
	"time"

	"wydatki/internal/log"
)

const aliveBody = "Bot is alive!"

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(aliveBody))
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	Pending   int    `json:"pending"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Backend:   s.status.Backend,
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.status.Pending != nil {
		resp.Pending = s.status.Pending()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.FromContext(r.Context()).Warn("Failed to encode health response", log.FieldError, err)
	}
}
