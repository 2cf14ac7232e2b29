package client

import (
	"context"

	"google.golang.org/grpc"

	"github.com/opencurve/curve-metacache/metrics"
	"github.com/opencurve/curve-metacache/proto"
)

const (
	metadataServicePath = "/curve.metacache.MetadataService/"
)

// MDSConfig dials the metadata service, the cache's authoritative
// fallback source for copyset membership.
type MDSConfig struct {
	Addresses       []string        `json:"addresses"`
	TransportConfig TransportConfig `json:"transport"`
}

// MDSClient talks to the metadata service. It implements
// cache.MetadataClient; the cache core never imports grpc directly, it
// only depends on that interface.
type MDSClient struct {
	conn *grpc.ClientConn
}

func NewMDSClient(cfg *MDSConfig) (*MDSClient, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errNoMDSAddress
	}

	conn, err := grpc.Dial(
		cfg.Addresses[0],
		append(dialOpts(cfg.TransportConfig), grpc.WithChainUnaryInterceptor(metrics.GRPCClientMetrics.UnaryClientInterceptor()))...,
	)
	if err != nil {
		return nil, err
	}
	return &MDSClient{conn: conn}, nil
}

func (c *MDSClient) Close() error {
	return c.conn.Close()
}

func (c *MDSClient) GetServerList(ctx context.Context, poolID uint32, copysetIDs []uint32) ([]proto.CopysetServerInfo, error) {
	req := &proto.GetServerListRequest{PoolId: poolID, CopysetIds: copysetIDs}
	resp := new(proto.GetServerListResponse)
	if err := c.conn.Invoke(ctx, metadataServicePath+"GetServerList", req, resp); err != nil {
		return nil, err
	}
	return resp.Copysets, nil
}

func (c *MDSClient) GetChunkServerID(ctx context.Context, endpoint proto.EndPoint) (uint32, bool, error) {
	req := &proto.GetChunkServerIDRequest{Endpoint: endpoint}
	resp := new(proto.GetChunkServerIDResponse)
	if err := c.conn.Invoke(ctx, metadataServicePath+"GetChunkServerID", req, resp); err != nil {
		return 0, false, err
	}
	return resp.MemberId, resp.Found, nil
}

func (c *MDSClient) ListChunkServerInServer(ctx context.Context, ip string) ([]uint32, error) {
	req := &proto.ListChunkServerInServerRequest{Ip: ip}
	resp := new(proto.ListChunkServerInServerResponse)
	if err := c.conn.Invoke(ctx, metadataServicePath+"ListChunkServerInServer", req, resp); err != nil {
		return nil, err
	}
	return resp.MemberIds, nil
}
