package middleware

import (
	"context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyIsHTMX     ctxKey = "is_htmx"
	ctxKeyHTMXTarget ctxKey = "htmx_target"
)

// WithHTMX marks request as HTMX
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX returns whether this is an htmx request
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

// WithHTMXTarget stores the id of the element htmx will swap into.
func WithHTMXTarget(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyHTMXTarget, id)
}

// HTMXTarget returns the swap target id, empty for non-htmx requests.
func HTMXTarget(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyHTMXTarget).(string)
	return v
}
