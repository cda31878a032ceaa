package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/instabackend/internal/logger"
)

// UnaryLoggingInterceptor logs method, duration and resulting status of every unary call.
func UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		logCall("gRPC request", info.FullMethod, time.Since(start), err)

		return resp, err
	}
}

// StreamLoggingInterceptor logs every stream once it is finished.
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()

		err := handler(srv, ss)

		logCall("gRPC stream", info.FullMethod, time.Since(start), err)

		return err
	}
}

func logCall(kind, method string, duration time.Duration, err error) {
	st, _ := status.FromError(err)

	logger.Log.Infoln(
		kind,
		"method", method,
		"duration", duration,
		"code", st.Code().String(),
		"message", st.Message(),
	)
}
