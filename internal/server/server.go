// Package server implements the gRPC TimelineService
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/timestore/internal/logger"
	"github.com/nainya/timestore/internal/metrics"
	"github.com/nainya/timestore/pkg/history"
	"github.com/nainya/timestore/pkg/timeline"
	"github.com/nainya/timestore/pkg/workspace"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "timestore.v1.TimelineService"

// Version is reported by the Health method
const Version = "1.0.0"

// TimelineServiceServer is the service implemented by Server
type TimelineServiceServer interface {
	CreateNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LinkNotes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UnlinkNotes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListNotes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Mark(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unlock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Discard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollBack(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollForward(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type method func(TimelineServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TimelineServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TimelineServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes TimelineService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TimelineServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateNote", TimelineServiceServer.CreateNote),
		unary("UpdateNote", TimelineServiceServer.UpdateNote),
		unary("DeleteNote", TimelineServiceServer.DeleteNote),
		unary("LinkNotes", TimelineServiceServer.LinkNotes),
		unary("UnlinkNotes", TimelineServiceServer.UnlinkNotes),
		unary("GetNote", TimelineServiceServer.GetNote),
		unary("ListNotes", TimelineServiceServer.ListNotes),
		unary("Mark", TimelineServiceServer.Mark),
		unary("Unlock", TimelineServiceServer.Unlock),
		unary("Discard", TimelineServiceServer.Discard),
		unary("RollBack", TimelineServiceServer.RollBack),
		unary("RollForward", TimelineServiceServer.RollForward),
		unary("Status", TimelineServiceServer.Status),
		unary("Health", TimelineServiceServer.Health),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "timestore/v1/timeline.proto",
}

// RegisterTimelineService registers srv with s
func RegisterTimelineService(s grpc.ServiceRegistrar, srv TimelineServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server implements TimelineServiceServer over a workspace
type Server struct {
	ws        *workspace.Workspace
	log       *logger.Logger
	metrics   *metrics.Metrics
	startTime time.Time
}

var _ TimelineServiceServer = (*Server)(nil)

// Option configures a Server
type Option func(*Server)

// WithLogger logs marks and rolls with l
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l.TimelineLogger() }
}

// WithMetrics records mark and roll latency in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a new gRPC server instance
func NewServer(ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{
		ws:        ws,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) observe(operation string, start time.Time, err error) {
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordTimelineOperation(operation, duration)
	}
	if s.log != nil {
		s.log.LogTimelineOperation(operation, s.ws.Status().Current.String(), duration, err)
	}
}

// toStatus maps engine errors to gRPC status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, workspace.ErrEmptyTitle),
		errors.Is(err, timeline.ErrInvalidTimeMarker),
		errors.Is(err, timeline.ErrDuplicateMarkName):
		code = codes.InvalidArgument
	case errors.Is(err, workspace.ErrNoteNotFound),
		errors.Is(err, workspace.ErrLockNotFound),
		errors.Is(err, timeline.ErrUnknownToTimeline),
		errors.Is(err, timeline.ErrObjectNeverCreated),
		errors.Is(err, timeline.ErrUnknownTimeMarker):
		code = codes.NotFound
	case errors.Is(err, timeline.ErrRollBackBlocked),
		errors.Is(err, timeline.ErrRollForwardBlocked),
		errors.Is(err, timeline.ErrAlreadyRemoved):
		code = codes.FailedPrecondition
	}
	return status.Error(code, err.Error())
}

func empty() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}
}

// ========== Note Operations ==========

func (s *Server) CreateNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := s.ws.CreateNote(str(req, "title"))
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(id.String()),
	}}, nil
}

func (s *Server) UpdateNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, u, err := decodeUpdate(req)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.ws.UpdateNote(id, u); err != nil {
		return nil, toStatus(err)
	}
	return empty(), nil
}

func (s *Server) DeleteNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := historyID(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.ws.DeleteNote(id); err != nil {
		return nil, toStatus(err)
	}
	return empty(), nil
}

func (s *Server) LinkNotes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.link(req, s.ws.LinkNotes)
}

func (s *Server) UnlinkNotes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.link(req, s.ws.UnlinkNotes)
}

func (s *Server) link(req *structpb.Struct, apply func(from, to history.ID) (bool, error)) (*structpb.Struct, error) {
	from, err := historyID(req, "from")
	if err != nil {
		return nil, toStatus(err)
	}
	to, err := historyID(req, "to")
	if err != nil {
		return nil, toStatus(err)
	}
	changed, err := apply(from, to)
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"changed": structpb.NewBoolValue(changed),
	}}, nil
}

func (s *Server) GetNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := historyID(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	view, err := s.ws.GetNote(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeNote(view), nil
}

func (s *Server) ListNotes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	views, err := s.ws.ListNotes()
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeNotes(views), nil
}

// ========== Timeline Operations ==========

func (s *Server) Mark(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	m, err := s.ws.Mark(str(req, "name"), boolean(req, "lock"))
	s.observe("mark", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeMark(m), nil
}

func (s *Server) Unlock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, ok := req.GetFields()["marker"]
	if !ok {
		return nil, toStatus(fmt.Errorf("%w: marker is required", errBadRequest))
	}
	pos, err := position(v)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.ws.Unlock(pos); err != nil {
		return nil, toStatus(err)
	}
	return empty(), nil
}

func (s *Server) Discard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	st, err := s.ws.Discard()
	s.observe("discard", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStatus(statusReply(st)), nil
}

func (s *Server) RollBack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.roll(req, "roll_back", s.ws.RollBack)
}

func (s *Server) RollForward(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.roll(req, "roll_forward", s.ws.RollForward)
}

func (s *Server) roll(req *structpb.Struct, operation string, apply func(workspace.MarkerRef) (workspace.Status, error)) (*structpb.Struct, error) {
	ref, err := decodeRef(req)
	if err != nil {
		return nil, toStatus(err)
	}
	start := time.Now()
	st, err := apply(ref)
	s.observe(operation, start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStatus(statusReply(st)), nil
}

// ========== Health & Status ==========

func (s *Server) Status(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return encodeStatus(statusReply(s.ws.Status())), nil
}

func (s *Server) Health(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"healthy":        structpb.NewBoolValue(true),
		"version":        structpb.NewStringValue(Version),
		"uptime_seconds": structpb.NewNumberValue(float64(int64(time.Since(s.startTime).Seconds()))),
	}}, nil
}
