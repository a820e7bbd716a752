package interceptors

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"craft-beer-store/backend/internal/auth/service"
)

// fakeAuthorizer accepts tokens of the form "ok:<email>" and returns err for anything else.
type fakeAuthorizer struct {
	err error
}

func (f fakeAuthorizer) Authorize(_ context.Context, token string) (string, error) {
	if email, ok := strings.CutPrefix(token, "ok:"); ok {
		return email, nil
	}
	if f.err != nil {
		return "", f.err
	}
	return "", service.ErrTokenInvalid
}

func bearerCtx(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		"authorization": "Bearer " + token,
	}))
}

func okHandler(ctx context.Context, req interface{}) (interface{}, error) {
	return "success", nil
}

func TestAuthUnary_PublicMethod(t *testing.T) {
	interceptor := AuthUnary(fakeAuthorizer{}, map[string]bool{"/test.Service/PublicMethod": true})

	resp, err := interceptor(context.Background(), "request", &grpc.UnaryServerInfo{
		FullMethod: "/test.Service/PublicMethod",
	}, okHandler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "success" {
		t.Errorf("response = %v, want %q", resp, "success")
	}
}

func TestAuthUnary_PublicMethod_BadTokenStillPasses(t *testing.T) {
	interceptor := AuthUnary(fakeAuthorizer{}, map[string]bool{"/test.Service/PublicMethod": true})

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		if _, ok := GetEmail(ctx); ok {
			t.Error("public method with a bad token must not carry an identity")
		}
		return "success", nil
	}
	if _, err := interceptor(bearerCtx("garbage"), "request", &grpc.UnaryServerInfo{
		FullMethod: "/test.Service/PublicMethod",
	}, handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}

func TestAuthUnary_ProtectedMethod_NoToken(t *testing.T) {
	interceptor := AuthUnary(fakeAuthorizer{}, map[string]bool{})

	_, err := interceptor(context.Background(), "request", &grpc.UnaryServerInfo{
		FullMethod: "/test.Service/ProtectedMethod",
	}, okHandler)
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if code := status.Code(err); code != codes.Unauthenticated {
		t.Errorf("status code = %v, want %v", code, codes.Unauthenticated)
	}
}

func TestAuthUnary_ProtectedMethod_ValidToken(t *testing.T) {
	interceptor := AuthUnary(fakeAuthorizer{}, map[string]bool{})

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		email, ok := GetEmail(ctx)
		if !ok || email != "juan@example.com" {
			t.Errorf("email = %q, ok = %v, want %q", email, ok, "juan@example.com")
		}
		return "success", nil
	}

	resp, err := interceptor(bearerCtx("ok:juan@example.com"), "request", &grpc.UnaryServerInfo{
		FullMethod: "/test.Service/ProtectedMethod",
	}, handler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "success" {
		t.Errorf("response = %v, want %q", resp, "success")
	}
}

func TestAuthUnary_ProtectedMethod_Rejections(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid token", service.ErrTokenInvalid, codes.Unauthenticated},
		{"blocked account", service.ErrAccountBlocked, codes.PermissionDenied},
		{"store down", fmt.Errorf("get account: %w", service.ErrStoreUnavailable), codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := AuthUnary(fakeAuthorizer{err: tt.err}, map[string]bool{})
			called := false
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				called = true
				return nil, nil
			}
			_, err := interceptor(bearerCtx("rejected"), "request", &grpc.UnaryServerInfo{
				FullMethod: "/test.Service/ProtectedMethod",
			}, handler)
			if code := status.Code(err); code != tt.want {
				t.Errorf("status code = %v, want %v", code, tt.want)
			}
			if called {
				t.Error("handler must not run for a rejected token")
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer abc", "abc"},
		{"lower case scheme", "bearer abc", "abc"},
		{"padded", "  Bearer   abc  ", "abc"},
		{"basic scheme", "Basic abc", ""},
		{"scheme only", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
				"authorization": tt.header,
			}))
			if got := extractBearer(ctx); got != tt.want {
				t.Errorf("extractBearer(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("extractBearer(no metadata) = %q, want empty", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{
			name: "x-forwarded-for first hop",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-forwarded-for", "203.0.113.7, 10.0.0.1")),
			want: "203.0.113.7",
		},
		{
			name: "x-real-ip",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-real-ip", "198.51.100.2")),
			want: "198.51.100.2",
		},
		{
			name: "peer address",
			ctx:  peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("192.0.2.9"), Port: 5555}}),
			want: "192.0.2.9",
		},
		{
			name: "nothing known",
			ctx:  context.Background(),
			want: "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClientIP(tt.ctx); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIPUnary(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-real-ip", "198.51.100.2"))
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return GetClientIP(ctx), nil
	}
	resp, err := ClientIPUnary()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/test.Service/M"}, handler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "198.51.100.2" {
		t.Errorf("client ip = %v, want %q", resp, "198.51.100.2")
	}
}

func TestLoggingUnary(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	interceptor := LoggingUnary(log, map[string]bool{"/grpc.health.v1.Health/Check": true})

	failing := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unauthenticated, "nope")
	}
	if _, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/test.Service/M"}, failing); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("error passthrough: got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"method":"/test.Service/M"`) || !strings.Contains(out, `"code":"Unauthenticated"`) {
		t.Errorf("log line missing fields: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("client errors should log at warn: %s", out)
	}

	buf.Reset()
	if _, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, okHandler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("skipped method logged: %s", buf.String())
	}
}
