package middlewares

import "context"

type ctxKey string

const (
	ctxRequestIDKey    ctxKey = "request_id"
	ctxRequesterKeyKey ctxKey = "requester_key"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func setRequesterKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxRequesterKeyKey, key)
}

// GetRequestID retorna el request ID o "" si WithRequestID no corrió.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

// GetRequesterKey retorna la clave del solicitante puesta por WithRequester.
func GetRequesterKey(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequesterKeyKey).(string); ok {
		return v
	}
	return ""
}
