// Package tenant carries the identity of the tenant a unit of work executes
// on behalf of. The binding travels on the context.Context of the request or
// job, never in package or goroutine-global state, so concurrent units of
// work cannot observe or corrupt each other's binding, and the binding cannot
// outlive the context it was attached to.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// WithTenant returns a context bound to the given tenant. Binding a second
// tenant over an existing one replaces it for the derived context only; the
// parent context keeps its original binding.
func WithTenant(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext reports the tenant bound to ctx, if any.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// Detach returns a context with no tenant bound, regardless of what the
// parent carries. Maintenance code uses it to make an unscoped section
// explicit instead of relying on a context that happens to be unbound.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, uuid.Nil)
}

// RunAs executes fn with ctx bound to the given tenant. The binding exists
// only for the duration of the call: fn's context is derived from ctx, so
// the caller's context is untouched on every exit path, including panics.
func RunAs(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(WithTenant(ctx, id))
}
