package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/sheetsnap/internal/core"
	"github.com/JonMunkholm/sheetsnap/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSnapshot serves the latest artifact verbatim. The content digest
// doubles as an ETag so polling consumers can cheaply detect "no change".
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Latest()
	if err != nil {
		if errors.Is(err, core.ErrNotReady) {
			writeError(w, http.StatusServiceUnavailable, "snapshot not ready yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}

	etag := `"` + snap.Digest + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", snap.Refreshed.UTC().Format(http.TimeFormat))
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	if err := s.service.Refresh(r.Context()); err != nil {
		logger.Error("manual refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	snap, err := s.service.Latest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "refresh produced no snapshot")
		return
	}
	logger.Info("manual refresh completed", "digest", snap.Digest)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "refreshed",
		"digest": snap.Digest,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
