package context

import "context"

type correlationKey struct{}

// WithCorrelationID returns a context carrying the given correlation ID.
// The ID ties together every log line a request produces, from the inbound
// HTTP request down to the outbound document service calls.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns the correlation ID stored in ctx, or the empty
// string when none is present.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
