// Package grpc exposes the server over gRPC. Every call passes through
// interceptors that authenticate the x-auth-token metadata the same way
// the HTTP filter authenticates the X-AUTH-TOKEN header.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// TokenAuthenticator turns a raw token into an AuthResult.
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) auth.AuthResult
}

type GRPCServer struct {
	address       string
	authenticator TokenAuthenticator
	health        *health.Server
	logger        logging.Logger
}

func NewGRPCServer(address string, authenticator TokenAuthenticator, l logging.Logger) *GRPCServer {
	return &GRPCServer{
		address:       address,
		authenticator: authenticator,
		health:        health.NewServer(),
		logger:        l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.authUnaryInterceptor),
		grpc.ChainStreamInterceptor(s.authStreamInterceptor),
	)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
