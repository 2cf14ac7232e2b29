// Package cache implements the client-side metadata cache of a
// distributed block-storage system: it lets a storage client locate
// and address replica groups ("copysets") of data shards ("chunks")
// across a fleet of storage nodes, and keeps that routing information
// coherent in the face of leader elections, node failures, and cluster
// reconfiguration.
package cache

import (
	"context"

	"github.com/opencurve/curve-metacache/proto"
)

// Config is the cache's Init contract: the refresh-ladder tuning plus
// a handle to the metadata service client and the group-probe client.
// Config is read-only after Init, per spec.md §5.
type Config struct {
	Options

	MetadataClient MetadataClient
	GroupProbe     GroupProbe
}

// Cache is the single-owner, process-local metadata cache. It is an
// instance, not a process-wide singleton - every dependency (the
// metadata client, the group probe) is injected at construction.
type Cache struct {
	chunks   *chunkIndex
	members  *memberIndex
	copysets *copysetTable
	resolver *LeaderResolver
}

// Init constructs a Cache from cfg, matching spec.md §6's Init
// contract. There is no package-level singleton; callers own the
// returned instance.
func Init(cfg Config) *Cache {
	members := newMemberIndex()
	copysets := newCopysetTable(members)
	return &Cache{
		chunks:   newChunkIndex(),
		members:  members,
		copysets: copysets,
		resolver: newLeaderResolver(cfg.Options, copysets, members, cfg.MetadataClient, cfg.GroupProbe),
	}
}

// LookupChunk returns the stable identity of the chunk at idx.
func (c *Cache) LookupChunk(idx proto.ChunkIndex) (proto.ChunkIDInfo, bool) {
	return c.chunks.Lookup(idx)
}

// UpsertChunk unconditionally installs idx -> info, overwriting any
// prior mapping.
func (c *Cache) UpsertChunk(idx proto.ChunkIndex, info proto.ChunkIDInfo) {
	c.chunks.Upsert(idx, info)
}

// GetCopyset returns a snapshot of the cached CopysetInfo for key,
// without triggering a refresh. Diagnostics and metrics should use
// this rather than ResolveLeader, which may block on RPC.
func (c *Cache) GetCopyset(key CopysetKey) (CopysetInfo, bool) {
	return c.copysets.Get(key)
}

// PutCopyset installs info under key, reconciling the member index.
func (c *Cache) PutCopyset(key CopysetKey, info CopysetInfo) {
	c.copysets.Put(key, info)
}

// ResolveLeader returns the current leader of (poolID, copysetID),
// refreshing through the ladder described in spec.md §4.4 when the
// cached entry is unknown, unstable, or forceRefresh is set.
func (c *Cache) ResolveLeader(ctx context.Context, poolID, copysetID uint32, forceRefresh bool) (memberID uint32, endpoint proto.EndPoint, err error) {
	return c.resolver.ResolveLeader(ctx, poolID, copysetID, forceRefresh)
}

// UpdateLeader applies a redirect hint from a storage node ("not
// leader; try X") without making any RPC.
func (c *Cache) UpdateLeader(poolID, copysetID, memberID uint32, endpoint proto.EndPoint) error {
	return c.resolver.UpdateLeader(poolID, copysetID, memberID, endpoint)
}

// UpdateAppliedIndex sets appliedIndex := max(current, value) for key.
func (c *Cache) UpdateAppliedIndex(key CopysetKey, value uint64) {
	c.copysets.UpdateAppliedIndex(key, value)
}

// GetAppliedIndex returns the highest applied index observed for key,
// or 0 if key is absent.
func (c *Cache) GetAppliedIndex(key CopysetKey) uint64 {
	return c.copysets.GetAppliedIndex(key)
}

// SetChunkserverUnstable flags every copyset memberID leads (or whose
// leader is unknown) as needing a refresh before the next read.
func (c *Cache) SetChunkserverUnstable(memberID uint32) {
	c.resolver.SetChunkserverUnstable(memberID)
}

// SetServerUnstable is the host-level variant of
// SetChunkserverUnstable: it asks the metadata service which storage
// nodes live on ip and marks each one unstable.
func (c *Cache) SetServerUnstable(ctx context.Context, ip string) error {
	return c.resolver.SetServerUnstable(ctx, ip)
}

// AddMemberBinding seeds memberIndex directly, for callers that learn
// of a copyset membership out of band (e.g. from a chunkserver's own
// heartbeat report) without a full PutCopyset.
func (c *Cache) AddMemberBinding(memberID uint32, key CopysetKey) {
	c.members.AddBinding(memberID, key)
}

// IsLeaderMayChange reports whether the cached entry for key is
// unstable or has no known leader - i.e. whether the next
// ResolveLeader on key would need to refresh. It returns false when key
// is not cached at all.
func (c *Cache) IsLeaderMayChange(key CopysetKey) bool {
	return c.copysets.IsLeaderMayChange(key)
}
