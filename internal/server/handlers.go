package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/pipeline"
	"github.com/sells-group/seo-dashboard/internal/report"
	"github.com/sells-group/seo-dashboard/internal/state"
	"github.com/sells-group/seo-dashboard/internal/validate"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.breakers != nil {
		body["breakers"] = s.breakers.Snapshot()
	}
	writeJSON(w, http.StatusOK, body)
}

// handleIndex renders whichever screen the session is in.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	user, err := s.gate.Resolve(r.Context(), r, sess)
	if err != nil {
		s.render(w, r, func() error { return s.renderer.Loading(w) })
		return
	}

	if sess.Analyzing() {
		url := sess.Pending()
		s.render(w, r, func() error { return s.renderer.Analyzing(w, user, url) })
		return
	}

	flash := takeFlash(sess)
	if current := sess.Current(); current != nil {
		s.render(w, r, func() error { return s.renderer.Report(w, user, flash, current) })
		return
	}
	s.render(w, r, func() error { return s.renderer.Input(w, user, flash) })
}

// handleAnalyze validates the submitted URL and starts a background
// analysis. The browser is sent back to / either way.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	user := sess.Identity()
	if user == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	url, err := validate.NormalizeURL(r.FormValue("url"))
	if err != nil {
		sess.SetNotice(state.Notice{Kind: state.NoticeError, Text: validate.Notice(err)})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	token, ctx, ok := sess.Begin(s.root, url)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	req := pipeline.Request{URL: url, SessionID: sess.ID, Email: user.Email}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runAnalysis(ctx, sess, token, req)
	}()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// runAnalysis publishes the outcome under token. A result that lost the
// race to a reset or newer request is dropped and its run marked superseded.
func (s *Server) runAnalysis(ctx context.Context, sess *state.Session, token uint64, req pipeline.Request) {
	log := zap.L().With(zap.String("session_id", sess.ID), zap.Uint64("token", token), zap.String("url", req.URL))

	out, err := s.analyzer.Run(ctx, req)
	if err != nil {
		if sess.Fail(token, state.FailedNotice) {
			return
		}
		// A reset or newer request cancelled or outran this run.
		log.Info("server: stale analysis failure dropped", zap.Error(err))
		var ae *pipeline.AnalysisError
		if errors.As(err, &ae) && ae.RunID != "" {
			s.analyzer.Supersede(context.WithoutCancel(ctx), ae.RunID)
		}
		return
	}

	if !sess.Publish(token, out.Data) {
		log.Info("server: stale analysis result dropped", zap.String("run_id", out.RunID))
		s.analyzer.Supersede(context.WithoutCancel(ctx), out.RunID)
	}
}

// handleReset clears the current analysis ("New Analysis").
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, fn func() error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := fn(); err != nil {
		zap.L().Error("server: render failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func takeFlash(sess *state.Session) *report.Flash {
	n, ok := sess.TakeNotice()
	if !ok {
		return nil
	}
	return &report.Flash{Success: n.Kind == state.NoticeSuccess, Text: n.Text}
}
