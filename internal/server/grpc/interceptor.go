package grpc

import (
	"context"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.AuthTokenMetadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (s *GRPCServer) authenticate(ctx context.Context, method string) context.Context {
	res := s.authenticator.AuthenticateToken(ctx, tokenFromMetadata(ctx))
	s.logger.Debug(ctx, "rpc", "method", method, "user", res.Name())
	return auth.WithResult(ctx, res)
}

// authUnaryInterceptor installs the caller's AuthResult and always
// continues; handlers decide what anonymous callers may do.
func (s *GRPCServer) authUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	return handler(s.authenticate(ctx, info.FullMethod), req)
}

type authServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authServerStream) Context() context.Context { return a.ctx }

func (s *GRPCServer) authStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := s.authenticate(ss.Context(), info.FullMethod)
	return handler(srv, &authServerStream{ServerStream: ss, ctx: ctx})
}
