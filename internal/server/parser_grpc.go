package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// The parser service carries google.protobuf.Struct in both directions, so it
// needs no generated message types. The descriptor below is what protoc-gen-go-grpc
// would emit for:
//
//	service ParserService {
//	  rpc Parse(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
const (
	ParserServiceName     = "receipts.v1.ParserService"
	ParserParseFullMethod = "/receipts.v1.ParserService/Parse"
)

// ParserServiceServer is the server API for ParserService.
type ParserServiceServer interface {
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedParserServiceServer can be embedded to have forward compatible implementations.
type UnimplementedParserServiceServer struct{}

func (UnimplementedParserServiceServer) Parse(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Parse not implemented")
}

func RegisterParserServiceServer(s grpc.ServiceRegistrar, srv ParserServiceServer) {
	s.RegisterService(&ParserService_ServiceDesc, srv)
}

func _ParserService_Parse_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParserServiceServer).Parse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ParserParseFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParserServiceServer).Parse(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ParserService_ServiceDesc is the grpc.ServiceDesc for ParserService.
var ParserService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ParserServiceName,
	HandlerType: (*ParserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Parse",
			Handler:    _ParserService_Parse_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "receipts/v1/parser.proto",
}

// ParserServiceClient is the client API for ParserService.
type ParserServiceClient interface {
	Parse(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type parserServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewParserServiceClient(cc grpc.ClientConnInterface) ParserServiceClient {
	return &parserServiceClient{cc}
}

func (c *parserServiceClient) Parse(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ParserParseFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
