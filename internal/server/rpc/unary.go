package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FullMethod returns the gRPC full method name "/service/method".
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// Unary builds the method descriptor for one unary RPC of a hand-declared service. call is
// usually a method expression on the service interface, e.g. LinkageService.Link. The
// descriptor decodes the request, runs the server interceptor chain and dispatches.
func Unary[S, Req, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := FullMethod(service, method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, status.Error(codes.InvalidArgument, "malformed request")
			}
			s, ok := srv.(S)
			if !ok {
				return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", method)
			}
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a unary RPC on conn using the JSON codec. The response type comes first so callers
// can name it and let the request type be inferred: rpc.Invoke[LoginResponse](ctx, conn, m, req).
func Invoke[Resp, Req any](ctx context.Context, conn grpc.ClientConnInterface, fullMethod string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := conn.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
