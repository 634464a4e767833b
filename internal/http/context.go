package http

import "context"

type contextKey string

const (
	requestIDContextKey contextKey = "linkleaf/request-id"
	viewerIDContextKey  contextKey = "linkleaf/viewer-id"
)

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return value
	}
	return ""
}

// ViewerIDFromContext extracts the authenticated viewer's user ID, or zero for
// anonymous requests.
func ViewerIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if value, ok := ctx.Value(viewerIDContextKey).(uint); ok {
		return value
	}
	return 0
}
