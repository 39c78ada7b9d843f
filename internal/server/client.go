package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ChuLiYu/drone-dispatch/internal/report"
)

// Client calls a remote dispatch.v1.Planner.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn // owned connection, nil when cc was supplied
}

// Dial connects to addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial planner %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClient wraps an existing connection. Close does not close it.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Solve plans req.Problem remotely.
func (c *Client) Solve(ctx context.Context, req SolveRequest) (*SolveResponse, error) {
	in, err := encodeSolveRequest(req)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Solve", in, out); err != nil {
		return nil, err
	}
	return decodeSolveResponse(out)
}

// Runs lists up to limit recent runs on the server, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]report.Summary, error) {
	in, err := structpb.NewStruct(map[string]any{"limit": float64(limit)})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Runs", in, out); err != nil {
		return nil, err
	}
	return decodeRuns(out)
}
