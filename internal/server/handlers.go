package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Sumatoshi-tech/reposcope/internal/session"
)

// handleAnalysis serves the full current snapshot: every per-view dataset
// in one payload, used for initial page load.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	s.writeDataset(w, func(snap session.Snapshot) any { return snap })
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	s.writeDataset(w, func(snap session.Snapshot) any { return snap.Hierarchy })
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	s.writeDataset(w, func(snap session.Snapshot) any { return snap.Series })
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.writeDataset(w, func(snap session.Snapshot) any { return snap.Graph })
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	s.writeDataset(w, func(snap session.Snapshot) any {
		return map[string]any{
			"repo_name":   snap.Meta.RepoName,
			"analyzed_at": snap.Meta.AnalyzedAt,
			"repo_url":    s.sess.RepoURL(),
			"head_hash":   snap.HeadHash,
		}
	})
}

func (s *Server) writeDataset(w http.ResponseWriter, pick func(session.Snapshot) any) {
	snap, err := s.sess.Snapshot()
	if err != nil {
		if errors.Is(err, session.ErrNoAnalysis) {
			http.Error(w, "no analysis loaded", http.StatusServiceUnavailable)

			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if encodeErr := json.NewEncoder(w).Encode(pick(snap)); encodeErr != nil {
		slog.Error("encode response failed", "error", encodeErr)
	}
}
