// Package grpcserver exposes the standard gRPC health checking protocol
// (grpc.health.v1.Health) next to the HTTP API.
package grpcserver

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/patric-chuzhbe/instabackend/internal/grpcserver/interceptor"
)

// NewHealthServer returns a health server reporting SERVING both for the
// whole server ("") and for serviceName.
func NewHealthServer(serviceName string) *health.Server {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	return healthServer
}

// New builds a gRPC server with logging interceptors, the health service
// and server reflection registered.
func New(healthServer *health.Server) *grpc.Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.UnaryLoggingInterceptor()),
		grpc.ChainStreamInterceptor(interceptor.StreamLoggingInterceptor()),
	)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return server
}

// NewGRPCServer binds addr and returns the server together with its listener.
func NewGRPCServer(addr string, healthServer *health.Server) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	return New(healthServer), lis, nil
}
