package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"github.com/opencurve/curve-metacache/metrics"
	"github.com/opencurve/curve-metacache/proto"
)

const groupServicePath = "/curve.metacache.GroupService/"

// GroupClient dials copyset members directly and asks them who they
// believe the current leader is. This is the cache's fast path; the
// group is the most up-to-date source of truth because a leader
// election completes locally before the metadata service ever hears
// about it.
//
// Connections are cached by endpoint since the same member is probed
// repeatedly across ladder runs and across copysets it participates in.
type GroupClient struct {
	tc    TransportConfig
	mu    sync.Mutex
	conns map[proto.EndPoint]*grpc.ClientConn
}

func NewGroupClient(tc TransportConfig) *GroupClient {
	return &GroupClient{
		tc:    tc,
		conns: make(map[proto.EndPoint]*grpc.ClientConn),
	}
}

// GetLeader asks the member at endpoint who the current leader is.
func (g *GroupClient) GetLeader(ctx context.Context, poolID, copysetID uint32, endpoint proto.EndPoint) (uint32, proto.EndPoint, error) {
	if endpoint.Empty() {
		return 0, proto.EndPoint{}, errNoGroupEndpoint
	}

	conn, err := g.connFor(endpoint)
	if err != nil {
		return 0, proto.EndPoint{}, err
	}

	req := &proto.GetLeaderRequest{PoolId: poolID, CopysetId: copysetID}
	resp := new(proto.GetLeaderResponse)
	if err := conn.Invoke(ctx, groupServicePath+"GetLeader", req, resp); err != nil {
		return 0, proto.EndPoint{}, err
	}
	return resp.MemberId, resp.Endpoint, nil
}

func (g *GroupClient) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var firstErr error
	for ep, conn := range g.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(g.conns, ep)
	}
	return firstErr
}

func (g *GroupClient) connFor(endpoint proto.EndPoint) (*grpc.ClientConn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if conn, ok := g.conns[endpoint]; ok {
		return conn, nil
	}

	addr := fmt.Sprintf("%s:%d", endpoint.IP, endpoint.Port)
	conn, err := grpc.Dial(
		addr,
		append(dialOpts(g.tc), grpc.WithChainUnaryInterceptor(metrics.GRPCClientMetrics.UnaryClientInterceptor()))...,
	)
	if err != nil {
		return nil, err
	}
	g.conns[endpoint] = conn
	return conn, nil
}
