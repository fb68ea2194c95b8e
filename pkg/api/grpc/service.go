package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	longrunningpb "cloud.google.com/go/longrunning/autogen/longrunningpb"
)

var interpreterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InterpreterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Tokenize", Handler: tokenizeHandler},
		{MethodName: "Exec", Handler: execHandler},
		{MethodName: "Grid", Handler: gridHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tscript/v1/interpreter.proto",
}

func tokenizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InterpreterServer).Tokenize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Tokenize"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InterpreterServer).Tokenize(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func execHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InterpreterServer).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Exec"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InterpreterServer).Exec(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func gridHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InterpreterServer).Grid(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Grid"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InterpreterServer).Grid(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client is a client for the interpreter service.
type Client struct {
	cc grpc.ClientConnInterface
	longrunningpb.OperationsClient
}

// NewClient wraps a connection to a server running this package's services.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc, OperationsClient: longrunningpb.NewOperationsClient(cc)}
}

// Tokenize tokenizes source remotely.
func (c *Client) Tokenize(ctx context.Context, source string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"source": structpb.NewStringValue(source),
	}}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Tokenize", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Exec runs source remotely. An empty session runs in a throwaway session.
func (c *Client) Exec(ctx context.Context, source, session string, opts ...grpc.CallOption) (*longrunningpb.Operation, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"source": structpb.NewStringValue(source),
	}}
	if session != "" {
		in.Fields["session"] = structpb.NewStringValue(session)
	}
	out := new(longrunningpb.Operation)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Exec", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Grid fetches an operator's dispatch grid.
func (c *Client) Grid(ctx context.Context, operator string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"operator": structpb.NewStringValue(operator),
	}}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Grid", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ExecResult unpacks the response of a finished Exec operation.
func ExecResult(op *longrunningpb.Operation) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := op.GetResponse().UnmarshalTo(out); err != nil {
		return nil, err
	}
	return out, nil
}
