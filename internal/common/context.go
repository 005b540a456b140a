package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID   contextKey = "request_id"
	ContextKeyContentHash contextKey = "content_hash"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithContentHash stores the hex sha256 of the document being parsed.
func WithContentHash(ctx context.Context, hashHex string) context.Context {
	return context.WithValue(ctx, ContextKeyContentHash, hashHex)
}

// ContentHashFromContext returns the hash stored by WithContentHash.
func ContentHashFromContext(ctx context.Context) (string, bool) {
	h, ok := ctx.Value(ContextKeyContentHash).(string)
	return h, ok && h != ""
}
