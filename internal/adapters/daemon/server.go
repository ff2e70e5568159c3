package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ introspectionServer = (*Server)(nil)

// Server answers introspection requests about a running build over a unix socket.
type Server struct {
	provider   ports.StatusProvider
	lifecycle  *Lifecycle
	logger     ports.Logger
	grpcServer *grpc.Server
	socketPath string
}

// NewServer creates an introspection server backed by provider.
func NewServer(provider ports.StatusProvider, lifecycle *Lifecycle, logger ports.Logger) *Server {
	s := &Server{
		provider:   provider,
		lifecycle:  lifecycle,
		logger:     logger,
		grpcServer: grpc.NewServer(),
	}
	registerIntrospectionServer(s.grpcServer, s)
	return s
}

// Listen binds the unix socket at socketPath, replacing a stale one.
func (s *Server) Listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIntrospectionFailed.Error()), "path", socketPath)
	}
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, "failed to remove stale socket"), "path", socketPath)
	}

	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIntrospectionFailed.Error()), "path", socketPath)
	}
	if err := os.Chmod(socketPath, domain.SocketPerm); err != nil {
		_ = lis.Close()
		return nil, zerr.Wrap(err, "failed to set socket permissions")
	}
	s.socketPath = socketPath
	return lis, nil
}

// Serve answers requests on lis until ctx is done or the lifecycle shuts down.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	defer s.cleanup()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.grpcServer.GracefulStop()
		return nil
	case <-s.lifecycle.Idle():
		s.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return zerr.Wrap(err, domain.ErrIntrospectionFailed.Error())
	}
}

func (s *Server) cleanup() {
	if s.socketPath != "" {
		_ = os.Remove(s.socketPath)
	}
}

// Ping implements the Ping RPC.
func (s *Server) Ping(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.lifecycle.Touch()
	return &emptypb.Empty{}, nil
}

// Status implements the Status RPC.
func (s *Server) Status(_ context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	s.lifecycle.Touch()

	snap := s.provider.Snapshot()
	snap.PID = os.Getpid()
	snap.Uptime = s.lifecycle.Uptime()
	snap.LastActivity = s.lifecycle.LastActivity()

	return encodeReply(&snap)
}

// LookupType implements the LookupType RPC.
func (s *Server) LookupType(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	s.lifecycle.Touch()

	fields := req.GetFields()
	runtime := fields[fieldRuntime].GetStringValue()
	typeName := fields[fieldType].GetStringValue()
	if typeName == "" {
		return nil, status.Error(codes.InvalidArgument, "type name is required")
	}
	from := int(fields[fieldPosition].GetNumberValue())

	lookup, err := s.provider.LookupType(ctx, runtime, typeName, from)
	if err != nil {
		s.logger.Debug("introspection lookup failed: " + err.Error())
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return encodeReply(&lookup)
}

func encodeReply(v any) (*wrapperspb.BytesValue, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(data), nil
}
