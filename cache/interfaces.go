package cache

import (
	"context"

	"github.com/opencurve/curve-metacache/proto"
)

// MetadataClient is the cache's authoritative, slow-path source of
// copyset membership. The production implementation (client.MDSClient)
// talks gRPC; the cache core only ever sees this interface, so it can
// be unit tested without a running metadata service.
type MetadataClient interface {
	GetServerList(ctx context.Context, poolID uint32, copysetIDs []uint32) ([]proto.CopysetServerInfo, error)
	GetChunkServerID(ctx context.Context, endpoint proto.EndPoint) (memberID uint32, found bool, err error)
	ListChunkServerInServer(ctx context.Context, ip string) ([]uint32, error)
}

// GroupProbe is the cache's fast path: ask a copyset member directly
// who it believes the leader is.
type GroupProbe interface {
	GetLeader(ctx context.Context, poolID, copysetID uint32, endpoint proto.EndPoint) (memberID uint32, leaderEndpoint proto.EndPoint, err error)
}
