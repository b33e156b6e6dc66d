package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/pipeline"
	"github.com/sells-group/seo-dashboard/internal/state"
	"github.com/sells-group/seo-dashboard/internal/validate"
)

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.gate.Resolve(r.Context(), r, s.session(w, r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleAnalysis returns the session's current analysis.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess.Identity() == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	current := sess.Current()
	if current == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":     "no analysis",
			"analyzing": sess.Analyzing(),
		})
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// handleAPIAnalyze runs one analysis synchronously. It leaves the session's
// current analysis untouched.
func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	user, err := s.gate.Resolve(r.Context(), r, sess)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var body analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := validate.NormalizeURL(body.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, validate.Notice(err))
		return
	}

	out, err := s.analyzer.Run(r.Context(), pipeline.Request{URL: url, SessionID: sess.ID, Email: user.Email})
	if err != nil {
		zap.L().Warn("server: api analysis failed", zap.String("url", url), zap.Error(err))
		writeError(w, http.StatusBadGateway, state.FailedNotice)
		return
	}
	writeJSON(w, http.StatusOK, out.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
