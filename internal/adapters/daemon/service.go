package daemon

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name of the introspection API.
const ServiceName = "strata.introspect.v1.Introspection"

const (
	methodPing       = "/" + ServiceName + "/Ping"
	methodStatus     = "/" + ServiceName + "/Status"
	methodLookupType = "/" + ServiceName + "/LookupType"
)

// Request fields of LookupType.
const (
	fieldRuntime  = "runtime"
	fieldType     = "type"
	fieldPosition = "from"
)

// introspectionServer is the server API of the introspection service.
// Payloads are protobuf well-known types; replies carry msgpack bodies in BytesValue.
type introspectionServer interface {
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Status(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	LookupType(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
}

func registerIntrospectionServer(s grpc.ServiceRegistrar, srv introspectionServer) {
	s.RegisterService(&introspectionServiceDesc, srv)
}

func pingHandler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(introspectionServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPing}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(introspectionServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(introspectionServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(introspectionServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func lookupTypeHandler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(introspectionServer).LookupType(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodLookupType}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(introspectionServer).LookupType(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var introspectionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*introspectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "LookupType", Handler: lookupTypeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "strata/introspect/v1/introspect.proto",
}
