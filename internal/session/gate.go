package session

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// ErrUnresolved means no identity is available for the session. The session
// stays in the loading state.
var ErrUnresolved = eris.New("session: identity unresolved")

// Status is the gate state of a session.
type Status int

const (
	// Loading: no identity yet. Terminal when resolution failed.
	Loading Status = iota
	// Ready: identity resolved; never left again.
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// Holder stores the identity of one session.
type Holder interface {
	Identity() *model.Identity
	SetIdentity(model.Identity) bool
	ClaimResolve() bool
}

// Gate resolves each session's identity at most once. A failed attempt is
// logged and never repeated; the session stays Loading.
type Gate struct {
	provider Provider
}

// NewGate creates a Gate over provider.
func NewGate(provider Provider) *Gate {
	return &Gate{provider: provider}
}

// Status reports the gate state of h without resolving.
func (g *Gate) Status(h Holder) Status {
	if h.Identity() != nil {
		return Ready
	}
	return Loading
}

// Resolve returns the identity of h, asking the provider on the first call
// only. Every failure matches ErrUnresolved.
func (g *Gate) Resolve(ctx context.Context, r *http.Request, h Holder) (*model.Identity, error) {
	if id := h.Identity(); id != nil {
		return id, nil
	}
	if !h.ClaimResolve() {
		return nil, ErrUnresolved
	}

	id, err := g.provider.Resolve(ctx, r)
	if err == nil && (id == nil || id.ID == "" || id.Email == "") {
		err = eris.New("session: identity missing id or email")
	}
	if err != nil {
		zap.L().Warn("session: identity unresolved, staying on loading screen", zap.Error(err))
		return nil, &unresolvedError{cause: err}
	}

	h.SetIdentity(*id)
	return h.Identity(), nil
}

// unresolvedError keeps the provider failure reachable while matching
// ErrUnresolved.
type unresolvedError struct {
	cause error
}

func (e *unresolvedError) Error() string {
	return ErrUnresolved.Error() + ": " + e.cause.Error()
}

func (e *unresolvedError) Unwrap() error { return e.cause }

func (e *unresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}
