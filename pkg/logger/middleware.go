package logger

import (
	"context"

	"github.com/google/uuid"
)

// NewRequestID mints an identifier for one inbound request.
func NewRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID returns a copy of ctx carrying id. A blank id is replaced
// by a freshly minted one.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(ctx, RequestIDKey, id)
}
