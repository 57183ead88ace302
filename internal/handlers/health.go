package handlers

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	version     string
	environment string
}

func NewHealthHandler(db Pinger, version, environment string) *HealthHandler {
	return &HealthHandler{db: db, version: version, environment: environment}
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
}

// Health reports build info and database reachability. It answers 200 even
// when the database is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	db := "Disconnected"
	if h.db != nil && h.db.Ping(r.Context()) == nil {
		db = "Connected"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "Astravedam Backend is running!",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Version:     h.version,
		Environment: h.environment,
		Database:    db,
	})
}

// Live is the plain-text liveness probe.
func Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}
