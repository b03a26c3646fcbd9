package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// Unary builds a method descriptor for a handwritten service. The handler
// decodes Req with the server codec and maps returned errors with ToStatus.
func Unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				resp, err := call(srv.(S), ctx, req.(*Req))
				if err != nil {
					return nil, ToStatus(err)
				}
				return resp, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + service + "/" + method}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a unary method using the JSON codec.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, service, method string, req, resp interface{}) error {
	return cc.Invoke(ctx, "/"+service+"/"+method, req, resp, grpc.CallContentSubtype(CodecName))
}
