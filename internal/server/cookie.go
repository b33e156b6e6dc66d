package server

import (
	"net/http"

	"github.com/sells-group/seo-dashboard/internal/state"
)

const sessionCookie = "seo_session"

// session returns the caller's session, starting one when the cookie is
// missing or refers to an expired session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *state.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.sessions.Get(c.Value); sess != nil {
			sess.Touch()
			return sess
		}
	}

	sess := s.sessions.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}
