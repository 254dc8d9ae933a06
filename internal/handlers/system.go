package handlers

import (
	"net/http"
	"time"

	"lingo-backend/internal/models"
)

type readinessChecker interface {
	Ready() bool
}

type SystemHandler struct {
	startedAt time.Time
	readiness readinessChecker
	version   models.VersionInfo
}

// NewSystemHandler fills missing build details: commit defaults to "dev" and
// build time to the process start.
func NewSystemHandler(readiness readinessChecker, version models.VersionInfo) *SystemHandler {
	now := time.Now()
	if version.Commit == "" {
		version.Commit = "dev"
	}
	if version.BuildTime == "" {
		version.BuildTime = now.UTC().Format(time.RFC3339)
	}
	return &SystemHandler{
		startedAt: now,
		readiness: readiness,
		version:   version,
	}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"uptime": int64(time.Since(h.startedAt) / time.Second),
	})
}

func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.readiness.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"ready": false, "db": "connecting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ready": true, "db": "connected"})
}

func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.version)
}
