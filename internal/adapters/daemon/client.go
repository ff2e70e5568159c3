// Package daemon serves and queries the introspection API of a running strata build.
// Requests travel over gRPC on a unix socket below the workspace state directory.
package daemon

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ ports.IntrospectionClient = (*Client)(nil)

// Client implements ports.IntrospectionClient.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the introspection socket at socketPath.
// grpc.NewClient returns immediately; the connection is made on the first RPC.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient("unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIntrospectionFailed.Error()), "socket", socketPath)
	}
	return &Client{conn: conn}, nil
}

// Ping checks that a build is answering on the socket.
func (c *Client) Ping(ctx context.Context) error {
	return c.invoke(ctx, methodPing, &emptypb.Empty{}, &emptypb.Empty{})
}

// Status implements ports.IntrospectionClient.
func (c *Client) Status(ctx context.Context) (*domain.StatusSnapshot, error) {
	reply := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, methodStatus, &emptypb.Empty{}, reply); err != nil {
		return nil, err
	}

	var snap domain.StatusSnapshot
	if err := msgpack.Unmarshal(reply.GetValue(), &snap); err != nil {
		return nil, zerr.Wrap(err, domain.ErrIntrospectionFailed.Error())
	}
	return &snap, nil
}

// LookupType implements ports.IntrospectionClient.
func (c *Client) LookupType(
	ctx context.Context, runtime, typeName string, fromPosition int,
) (domain.TypeLookup, error) {
	req, err := structpb.NewStruct(map[string]any{
		fieldRuntime:  runtime,
		fieldType:     typeName,
		fieldPosition: fromPosition,
	})
	if err != nil {
		return domain.TypeLookup{}, zerr.Wrap(err, domain.ErrIntrospectionFailed.Error())
	}

	reply := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, methodLookupType, req, reply); err != nil {
		return domain.TypeLookup{}, zerr.With(err, "type", typeName)
	}

	var lookup domain.TypeLookup
	if err := msgpack.Unmarshal(reply.GetValue(), &lookup); err != nil {
		return domain.TypeLookup{}, zerr.Wrap(err, domain.ErrIntrospectionFailed.Error())
	}
	return lookup, nil
}

// Close implements ports.IntrospectionClient.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	err := c.conn.Invoke(ctx, method, in, out)
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unavailable {
		return zerr.Wrap(err, domain.ErrDaemonNotRunning.Error())
	}
	return zerr.Wrap(err, domain.ErrIntrospectionFailed.Error())
}
