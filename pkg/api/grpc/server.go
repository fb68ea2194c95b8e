// Package grpcapi serves the interpreter over gRPC. Requests and responses
// are google.protobuf.Struct messages shaped like the REST API bodies; Exec
// returns a google.longrunning.Operation so clients can fetch results again
// through the standard Operations service.
package grpcapi

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	longrunningpb "cloud.google.com/go/longrunning/autogen/longrunningpb"

	"github.com/lemonberrylabs/tscript/pkg/api"
	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/store"
)

// ServiceName is the full name of the interpreter service.
const ServiceName = "tscript.v1.Interpreter"

// InterpreterServer is the server API for the interpreter service.
type InterpreterServer interface {
	Tokenize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Exec(context.Context, *structpb.Struct) (*longrunningpb.Operation, error)
	Grid(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Server implements the Interpreter and Operations gRPC services.
type Server struct {
	longrunningpb.UnimplementedOperationsServer

	store *store.Store
	grpc  *grpc.Server

	mu     sync.Mutex
	ops    map[string]*longrunningpb.Operation
	order  []string
	maxOps int
}

// DefaultMaxOperations is the number of finished operations retained for
// GetOperation unless SetMaxOperations says otherwise.
const DefaultMaxOperations = 1000

// New creates a new gRPC server wrapping the given store.
func New(s *store.Store) *Server {
	srv := &Server{
		store:  s,
		ops:    make(map[string]*longrunningpb.Operation),
		maxOps: DefaultMaxOperations,
	}

	gs := grpc.NewServer()
	RegisterInterpreterServer(gs, srv)
	longrunningpb.RegisterOperationsServer(gs, srv)
	srv.grpc = gs

	return srv
}

// SetMaxOperations bounds the number of finished operations kept for
// GetOperation; the oldest are dropped first. Zero keeps all of them.
func (s *Server) SetMaxOperations(n int) {
	s.mu.Lock()
	s.maxOps = n
	s.mu.Unlock()
}

// RegisterInterpreterServer registers srv on s.
func RegisterInterpreterServer(s grpc.ServiceRegistrar, srv InterpreterServer) {
	s.RegisterService(&interpreterServiceDesc, srv)
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Stop stops the server immediately.
func (s *Server) Stop() {
	s.grpc.Stop()
}

// --- Interpreter Service ---

func (s *Server) Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	src, err := sourceOf(req)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]interface{}{
		"tokens": api.TokensJSON(s.store.Tokenizer().Tokenize(src)),
	})
}

func (s *Server) Exec(ctx context.Context, req *structpb.Struct) (*longrunningpb.Operation, error) {
	src, err := sourceOf(req)
	if err != nil {
		return nil, err
	}

	var sess *store.Session
	if id := req.GetFields()["session"].GetStringValue(); id != "" {
		sess, err = s.store.Get(id)
		if err != nil {
			return nil, status.Error(codes.NotFound, err.Error())
		}
	} else {
		sess, err = s.store.Create()
		if err != nil {
			return nil, status.Error(codes.ResourceExhausted, err.Error())
		}
		defer s.store.Delete(sess.ID())
	}

	results, execErr := sess.Exec(src)
	body := api.ExecJSON(results, execErr)
	body["variables"] = api.VariablesJSON(sess.Variables())
	resp, err := toStruct(body)
	if err != nil {
		return nil, err
	}

	op, err := doneOperation(uuid.NewString(), resp)
	if err != nil {
		return nil, err
	}
	s.remember(op)
	return op, nil
}

func (s *Server) Grid(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	op, err := dispatch.ParseOp(req.GetFields()["operator"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return toStruct(api.GridJSON(s.store.Table(), op))
}

// --- Operations Service ---

// GetOperation returns a finished Exec operation.
func (s *Server) GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest) (*longrunningpb.Operation, error) {
	s.mu.Lock()
	op, ok := s.ops[req.GetName()]
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "operation %q not found", req.GetName())
	}
	return op, nil
}

// ListOperations returns the retained operations, oldest first.
func (s *Server) ListOperations(ctx context.Context, req *longrunningpb.ListOperationsRequest) (*longrunningpb.ListOperationsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*longrunningpb.Operation, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.ops[name])
	}
	return &longrunningpb.ListOperationsResponse{Operations: out}, nil
}

// DeleteOperation forgets a finished operation.
func (s *Server) DeleteOperation(ctx context.Context, req *longrunningpb.DeleteOperationRequest) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := req.GetName()
	if _, ok := s.ops[name]; !ok {
		return nil, status.Errorf(codes.NotFound, "operation %q not found", name)
	}
	delete(s.ops, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return &emptypb.Empty{}, nil
}

// WaitOperation returns immediately: every operation is done when created.
func (s *Server) WaitOperation(ctx context.Context, req *longrunningpb.WaitOperationRequest) (*longrunningpb.Operation, error) {
	return s.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: req.GetName()})
}

// --- Internal helpers ---

func (s *Server) remember(op *longrunningpb.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.GetName()] = op
	s.order = append(s.order, op.GetName())
	for s.maxOps > 0 && len(s.order) > s.maxOps {
		delete(s.ops, s.order[0])
		s.order = s.order[1:]
	}
}

// OperationNames returns the names of the retained operations, sorted.
func (s *Server) OperationNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.ops))
	for n := range s.ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sourceOf(req *structpb.Struct) (string, error) {
	src := req.GetFields()["source"].GetStringValue()
	if src == "" {
		return "", status.Error(codes.InvalidArgument, "source is required")
	}
	return src, nil
}

func toStruct(m map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return st, nil
}

// doneOperation wraps a proto message in an already-completed LRO Operation.
func doneOperation(id string, msg proto.Message) (*longrunningpb.Operation, error) {
	any, err := anypb.New(msg)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to marshal operation result: %v", err)
	}
	meta, err := anypb.New(structpb.NewStringValue(time.Now().UTC().Format(time.RFC3339Nano)))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to marshal operation metadata: %v", err)
	}
	return &longrunningpb.Operation{
		Name:     "operations/" + id,
		Metadata: meta,
		Done:     true,
		Result: &longrunningpb.Operation_Response{
			Response: any,
		},
	}, nil
}
