package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"craft-beer-store/backend/internal/server/interceptors"
)

const (
	// TokenServiceName is the fully-qualified gRPC service name.
	TokenServiceName = "craftbeer.auth.v1.TokenService"
	// ValidateMethod is public: the token travels in the request body.
	ValidateMethod = "/" + TokenServiceName + "/Validate"
	// WhoAmIMethod requires a bearer token in the authorization metadata.
	WhoAmIMethod = "/" + TokenServiceName + "/WhoAmI"
)

// TokenServiceServer lets other services validate session tokens.
type TokenServiceServer interface {
	Validate(ctx context.Context, token *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	WhoAmI(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// TokenServer implements TokenServiceServer over the auth service.
type TokenServer struct {
	svc AuthService
}

// NewTokenServer returns a new TokenService gRPC server.
func NewTokenServer(svc AuthService) *TokenServer {
	return &TokenServer{svc: svc}
}

// Validate returns the email the token was issued for. Pure token check; no store access.
func (s *TokenServer) Validate(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req == nil || req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}
	email, err := s.svc.ValidateToken(req.GetValue())
	if err != nil {
		return nil, GRPCError(err)
	}
	return wrapperspb.String(email), nil
}

// WhoAmI returns the identity set by the auth interceptor.
func (s *TokenServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	email, ok := interceptors.GetEmail(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, msgTokenInvalid)
	}
	return wrapperspb.String(email), nil
}

// RegisterTokenServiceServer registers srv on s.
func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&tokenServiceDesc, srv)
}

var tokenServiceDesc = grpc.ServiceDesc{
	ServiceName: TokenServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "craftbeer/auth/v1/token.proto",
}

func validateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ValidateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TokenServiceServer).Validate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func whoAmIHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WhoAmIMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TokenServiceServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
