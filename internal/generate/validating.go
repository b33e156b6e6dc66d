package generate

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Validating checks every answer against the request schema before handing
// it back. A mismatch is an error; the value is never repaired.
type Validating struct {
	inner Generator
}

// Validate wraps g.
func Validate(g Generator) *Validating {
	return &Validating{inner: g}
}

// Name implements Generator.
func (v *Validating) Name() string { return v.inner.Name() }

// Generate implements Generator.
func (v *Validating) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	raw, err := v.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := req.Schema.Validate(raw); err != nil {
		return nil, eris.Wrapf(err, "generate: %s output does not match %s", v.inner.Name(), req.Name)
	}
	return raw, nil
}
