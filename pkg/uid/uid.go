// Package uid generates identifiers for requests and sync runs and carries
// them through a context.
package uid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header correlation ids travel in, inbound and outbound.
const Header = "X-Request-ID"

type contextKey struct{}

// New generates a new random identifier.
func New() string {
	return uuid.New().String()
}

// Short returns the first block of a new identifier, for log prefixes.
func Short() string {
	return New()[:8]
}

// IsValid reports whether id is a well formed UUID. Callers use it to
// decide whether an inbound X-Request-ID can be trusted.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// WithContext returns a copy of ctx carrying id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the id carried by ctx, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
