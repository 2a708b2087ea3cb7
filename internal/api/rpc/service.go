// Package rpc serves the mapping engine over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON documents as the
// REST API, so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "regmap.v1.LayoutService"

	MapFieldsMethod     = "/regmap.v1.LayoutService/MapFields"
	ListDataTypesMethod = "/regmap.v1.LayoutService/ListDataTypes"
)

// LayoutServiceServer is the server API for regmap.v1.LayoutService.
type LayoutServiceServer interface {
	MapFields(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDataTypes(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterLayoutServiceServer(s grpc.ServiceRegistrar, srv LayoutServiceServer) {
	s.RegisterService(&LayoutServiceDesc, srv)
}

func mapFieldsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LayoutServiceServer).MapFields(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MapFieldsMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LayoutServiceServer).MapFields(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listDataTypesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LayoutServiceServer).ListDataTypes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ListDataTypesMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LayoutServiceServer).ListDataTypes(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var LayoutServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LayoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "MapFields", Handler: mapFieldsHandler},
		{MethodName: "ListDataTypes", Handler: listDataTypesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "regmap/v1/layout.proto",
}

// LayoutServiceClient is the client API for regmap.v1.LayoutService.
type LayoutServiceClient interface {
	MapFields(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListDataTypes(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type layoutServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLayoutServiceClient(cc grpc.ClientConnInterface) LayoutServiceClient {
	return &layoutServiceClient{cc}
}

func (c *layoutServiceClient) MapFields(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MapFieldsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *layoutServiceClient) ListDataTypes(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListDataTypesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
