package util

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, requestID)
}

// GetRequestID 沒有 request id 時回傳 unknown
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(constants.RequestIDKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

func WithCaller(ctx context.Context, caller *service.Caller) context.Context {
	return context.WithValue(ctx, constants.AuthPayloadKey, caller)
}

// GetCaller 未經過認證 middleware 時回傳 nil
func GetCaller(ctx context.Context) *service.Caller {
	if v, ok := ctx.Value(constants.AuthPayloadKey).(*service.Caller); ok {
		return v
	}
	return nil
}
