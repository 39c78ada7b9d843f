// ============================================================================
// Drone Dispatch gRPC Service
// ============================================================================
//
// Package: internal/server
// File: server.go
// Purpose: Exposes the planner over gRPC
//
// Service dispatch.v1.Planner:
//   Solve  plan a problem sent inline in the Hash Code text format
//   Runs   list the most recent finished runs, newest first
//
// Messages are google.protobuf.Struct values, so the service needs no
// generated code. Field names follow the JSON run summary:
//
//   Solve request:   problem (string, required), strategy, builder,
//                    seed (number), commands (bool, include command lines)
//   Solve response:  run summary fields, plus commands (list of strings)
//   Runs request:    limit (number, optional)
//   Runs response:   runs (list of run summaries)
//
// Errors are gRPC status errors: InvalidArgument for unparseable problems
// and unknown names, Canceled/DeadlineExceeded from the caller context,
// Internal otherwise.
//
// The standard grpc.health.v1 service is registered alongside and reports
// SERVING for dispatch.v1.Planner.
//
// ============================================================================

package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ChuLiYu/drone-dispatch/internal/controller"
	"github.com/ChuLiYu/drone-dispatch/internal/parser"
)

var log = slog.Default()

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dispatch.v1.Planner"

// PlannerServer is the server side of dispatch.v1.Planner.
type PlannerServer interface {
	Solve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Runs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes dispatch.v1.Planner for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Solve", Handler: unaryHandler("Solve", PlannerServer.Solve)},
		{MethodName: "Runs", Handler: unaryHandler("Runs", PlannerServer.Runs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dispatch/v1/planner.proto",
}

func unaryHandler(method string, call func(PlannerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PlannerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PlannerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Server implements PlannerServer on top of a controller.Planner.
type Server struct {
	planner *controller.Planner
	health  *health.Server
}

// NewServer creates a new gRPC server instance.
func NewServer(planner *controller.Planner) *Server {
	return &Server{planner: planner, health: health.NewServer()}
}

// Register adds the planner and health services to gs.
func Register(gs *grpc.Server, srv *Server) {
	gs.RegisterService(&ServiceDesc, srv)
	healthpb.RegisterHealthServer(gs, srv.health)
	srv.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	srv.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// Shutdown marks every service as not serving.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}

// Solve handles a planning request.
func (s *Server) Solve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeSolveRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	problem, err := parser.Parse(strings.NewReader(req.Problem))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.planner.Run(ctx, problem, controller.Request{
		Strategy: req.Strategy,
		Builder:  req.Builder,
		Seed:     req.Seed,
		HasSeed:  req.HasSeed,
		Source:   "grpc",
	})
	if err != nil {
		return nil, toStatus(err)
	}

	var commands []string
	if req.Commands {
		commands = res.Schedule.Commands()
	}
	out, err := encodeSolveResponse(res.Summary(), commands)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Runs lists recent runs.
func (s *Server) Runs(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	limit := 0
	if v, ok := in.GetFields()["limit"]; ok {
		n, err := intField("limit", v)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		limit = int(n)
	}

	out, err := encodeRuns(s.planner.Runs(limit))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, controller.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		log.Error("Solve failed", "error", err)
		return status.Error(codes.Internal, err.Error())
	}
}
