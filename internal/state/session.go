// Package state holds the per-browser-session application state: the
// resolved identity, the current analysis and the in-flight flag.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// NoticeKind tells the renderer how to style a notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notices shown when an analysis ends.
const (
	CompleteNotice = "Analysis complete!"
	FailedNotice   = "Analysis failed. Please try again."
)

// Notice is a one-shot user-facing message.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// Session is the state of one browser session. All methods are safe for
// concurrent use.
type Session struct {
	ID string

	mu        sync.Mutex
	identity  *model.Identity
	resolving bool
	current   *model.AnalysisData
	analyzing bool
	pending   string
	token     uint64
	cancel    context.CancelFunc
	notice    *Notice
	lastSeen  time.Time
	nowFunc   func() time.Time
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	s := &Session{ID: id, nowFunc: time.Now}
	s.lastSeen = s.nowFunc()
	return s
}

// Identity returns the resolved identity, or nil while loading.
func (s *Session) Identity() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SetIdentity records the identity once. Later calls are ignored and return
// false.
func (s *Session) SetIdentity(id model.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		return false
	}
	s.identity = &id
	return true
}

// ClaimResolve reports whether the caller is the first to try resolving the
// identity of this session. Later callers get false, whatever the outcome of
// the first attempt.
func (s *Session) ClaimResolve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolving {
		return false
	}
	s.resolving = true
	return true
}

// Current returns the published analysis, or nil when absent.
func (s *Session) Current() *model.AnalysisData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Analyzing reports whether an analysis is in flight.
func (s *Session) Analyzing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzing
}

// Pending returns the URL of the in-flight analysis, or "".
func (s *Session) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.analyzing {
		return ""
	}
	return s.pending
}

// Begin starts an analysis of url. It refuses while another analysis is in
// flight. On success it returns a new token and a context derived from ctx
// that Reset cancels.
func (s *Session) Begin(ctx context.Context, url string) (uint64, context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analyzing {
		return 0, nil, false
	}
	s.token++
	s.analyzing = true
	s.pending = url
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return s.token, runCtx, true
}

// Publish stores data as the current analysis if token is the latest one
// issued. The previous record is replaced, never merged. It reports whether
// data was stored.
func (s *Session) Publish(token uint64, data *model.AnalysisData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || !s.analyzing || data == nil {
		return false
	}
	s.current = data
	s.finish()
	s.notice = &Notice{Kind: NoticeSuccess, Text: CompleteNotice}
	return true
}

// Fail ends the analysis for token with an error notice. Stale tokens are
// ignored.
func (s *Session) Fail(token uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || !s.analyzing {
		return false
	}
	s.finish()
	s.notice = &Notice{Kind: NoticeError, Text: text}
	return true
}

// Reset clears the current analysis, cancels any in-flight analysis and
// invalidates its token.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.token++
	s.finish()
}

// finish clears the in-flight state. Callers hold s.mu.
func (s *Session) finish() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.analyzing = false
	s.pending = ""
}

// SetNotice replaces the pending notice.
func (s *Session) SetNotice(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &n
}

// TakeNotice returns and clears the pending notice.
func (s *Session) TakeNotice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return Notice{}, false
	}
	n := *s.notice
	s.notice = nil
	return n, true
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.nowFunc()
}

// LastSeen returns when the session was last touched.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
