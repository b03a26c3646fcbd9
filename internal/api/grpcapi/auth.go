package grpcapi

import (
	"context"
	"strings"

	"github.com/Domenick1991/airreserve/internal/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type userIDKey struct{}

// AuthInterceptor validates the bearer token in the authorization metadata.
func AuthInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var raw string
		if values := md.Get("authorization"); len(values) > 0 {
			raw, _ = strings.CutPrefix(values[0], "Bearer ")
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		userID, err := middleware.ParseToken(secret, raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(context.WithValue(ctx, userIDKey{}, userID), req)
	}
}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// WithUserID is used by tests that call servers without the interceptor.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}
