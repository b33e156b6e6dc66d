package generate

import (
	"context"
	"encoding/json"

	"github.com/sells-group/seo-dashboard/internal/resilience"
)

// Guarded fails fast while the provider's breaker is open.
type Guarded struct {
	inner   Generator
	breaker *resilience.Breaker
}

// Guard wraps g with the breaker registered under g.Name().
func Guard(g Generator, breakers *resilience.Breakers) *Guarded {
	return &Guarded{inner: g, breaker: breakers.Get(g.Name())}
}

// Name implements Generator.
func (g *Guarded) Name() string { return g.inner.Name() }

// Generate implements Generator.
func (g *Guarded) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (json.RawMessage, error) {
		return g.inner.Generate(ctx, req)
	})
}
