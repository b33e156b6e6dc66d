// Package session resolves the signed-in user before any screen is shown.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// Provider is the external identity collaborator.
type Provider interface {
	Resolve(ctx context.Context, r *http.Request) (*model.Identity, error)
}

// APIError is returned when the identity endpoint answers with a non-2xx
// status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("session: identity HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// forwardedHeaders carry the browser's credentials to the identity endpoint.
var forwardedHeaders = []string{"Cookie", "Authorization"}

// HTTPProvider asks a "who am I" endpoint for the identity behind the
// incoming request's credentials.
type HTTPProvider struct {
	url  string
	http *http.Client
}

// Option configures an HTTPProvider.
type Option func(*HTTPProvider)

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *HTTPProvider) { p.http = hc }
}

// NewHTTPProvider creates an HTTPProvider for endpoint url.
func NewHTTPProvider(url string, timeout time.Duration, opts ...Option) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &HTTPProvider{url: url, http: &http.Client{Timeout: timeout}}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Resolve implements Provider.
func (p *HTTPProvider) Resolve(ctx context.Context, r *http.Request) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "session: create request")
	}
	req.Header.Set("Accept", "application/json")
	if r != nil {
		for _, h := range forwardedHeaders {
			if v := r.Header.Get(h); v != "" {
				req.Header.Set(h, v)
			}
		}
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "session: identity request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, eris.Wrap(err, "session: read identity")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var id model.Identity
	if err := json.Unmarshal(body, &id); err != nil {
		return nil, eris.Wrap(err, "session: unmarshal identity")
	}
	return &id, nil
}

// StaticProvider returns the same identity for every request. Used for
// local development.
type StaticProvider struct {
	identity model.Identity
}

// NewStaticProvider creates a StaticProvider.
func NewStaticProvider(id model.Identity) *StaticProvider {
	return &StaticProvider{identity: id}
}

// Resolve implements Provider.
func (p *StaticProvider) Resolve(context.Context, *http.Request) (*model.Identity, error) {
	id := p.identity
	return &id, nil
}
