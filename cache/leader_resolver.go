package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	cerrors "github.com/opencurve/curve-metacache/errors"
	"github.com/opencurve/curve-metacache/metrics"
	"github.com/opencurve/curve-metacache/proto"
)

// Options mirrors the Init contract of spec.md §6.
type Options struct {
	// GetLeaderRetry bounds the refresh ladder's outer loop.
	GetLeaderRetry uint32
	// RPCRetryIntervalUs is slept after each ladder iteration that found
	// no leader by any means, the last one included.
	RPCRetryIntervalUs uint32
	// GetLeaderRPCTimeoutMs bounds each individual group-probe RPC.
	GetLeaderRPCTimeoutMs uint32
}

func (o Options) withDefaults() Options {
	if o.GetLeaderRetry == 0 {
		o.GetLeaderRetry = 3
	}
	if o.RPCRetryIntervalUs == 0 {
		o.RPCRetryIntervalUs = 100000
	}
	if o.GetLeaderRPCTimeoutMs == 0 {
		o.GetLeaderRPCTimeoutMs = 500
	}
	return o
}

// LeaderResolver orchestrates the refresh ladder: ask the replica
// group, fall back to the metadata service, update both tables,
// respect retry/backoff bounds. It never holds a table lock across an
// RPC - every iteration reads a snapshot, releases, calls out, then
// re-enters the tables to install results.
type LeaderResolver struct {
	opts    Options
	table   *copysetTable
	members *memberIndex
	mds     MetadataClient
	group   GroupProbe

	sf          singleflight.Group
	warnLimiter *rate.Limiter
}

func newLeaderResolver(opts Options, table *copysetTable, members *memberIndex, mds MetadataClient, group GroupProbe) *LeaderResolver {
	return &LeaderResolver{
		opts:        opts.withDefaults(),
		table:       table,
		members:     members,
		mds:         mds,
		group:       group,
		warnLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// ResolveLeader returns the current leader of (poolID, copysetID). On
// a cache hit with a known, stable leader it never makes an RPC.
func (r *LeaderResolver) ResolveLeader(ctx context.Context, poolID, copysetID uint32, forceRefresh bool) (uint32, proto.EndPoint, error) {
	key := CopysetKey{PoolID: poolID, CopysetID: copysetID}

	info, ok := r.table.Get(key)
	if !ok {
		return 0, proto.EndPoint{}, cerrors.ErrNoSuchCopyset
	}

	if !forceRefresh && !info.LeaderUnstable && info.LeaderKnown() {
		metrics.ResolveHit.Inc()
		leader := info.Leader()
		return leader.MemberID, leader.Endpoint, nil
	}

	metrics.ResolveRefresh.Inc()
	v, err, _ := r.sf.Do(key.String(), func() (interface{}, error) {
		return r.runLadder(ctx, key)
	})
	if err != nil {
		return 0, proto.EndPoint{}, err
	}

	leader := v.(proto.MemberEntry)
	return leader.MemberID, leader.Endpoint, nil
}

// runLadder is the bounded refresh ladder of spec.md §4.4 step 3. It
// is only ever run once per key at a time, courtesy of the
// singleflight wrapper in ResolveLeader.
func (r *LeaderResolver) runLadder(ctx context.Context, key CopysetKey) (proto.MemberEntry, error) {
	span := trace.SpanFromContextSafe(ctx)

	var attempt uint32
	for attempt = 0; attempt < r.opts.GetLeaderRetry; attempt++ {
		info, ok := r.table.Get(key)
		if !ok {
			return proto.MemberEntry{}, cerrors.ErrNoSuchCopyset
		}

		if leader, ok := r.tryGroupProbe(ctx, key, info); ok {
			return leader, nil
		}

		if leader, ok := r.tryAuthoritativeRefresh(ctx, key, proto.EndPoint{}); ok {
			return leader, nil
		}

		span.Infof("refresh ladder attempt %d/%d found no leader for copyset %s", attempt+1, r.opts.GetLeaderRetry, key)
		select {
		case <-ctx.Done():
			return proto.MemberEntry{}, ctx.Err()
		case <-time.After(time.Duration(r.opts.RPCRetryIntervalUs) * time.Microsecond):
		}
	}

	r.table.MarkUnstable(key)
	metrics.LadderExhausted.Inc()
	if r.warnLimiter.Allow() {
		span.Warnf("leader unknown for copyset %s after %d attempts [corr=%s]", key, r.opts.GetLeaderRetry, uuid.NewString())
	}
	return proto.MemberEntry{}, cerrors.ErrLeaderUnknown
}

// tryGroupProbe runs the fast path of one ladder iteration: probe
// info's members in round-robin order, and on the first authoritative
// answer attempt to install it. A group answer naming a member the
// cache does not yet know about falls through to the metadata service
// with the learned endpoint as a hint, per spec.md §4.4 step 3a.
func (r *LeaderResolver) tryGroupProbe(ctx context.Context, key CopysetKey, info CopysetInfo) (proto.MemberEntry, bool) {
	span := trace.SpanFromContextSafe(ctx)

	memberID, endpoint, ok := r.probeMembers(ctx, info)
	if !ok {
		return proto.MemberEntry{}, false
	}

	switch r.table.UpdateLeader(key, memberID) {
	case updateLeaderOK:
		refreshed, _ := r.table.Get(key)
		return refreshed.Leader(), true
	case updateLeaderUnknownMember:
		span.Infof("group probe for copyset %s named unknown member %d, falling back to metadata service", key, memberID)
		return r.tryAuthoritativeRefresh(ctx, key, endpoint)
	default: // updateLeaderNotFound: entry vanished underneath us, unreachable in normal operation
		return proto.MemberEntry{}, false
	}
}

func (r *LeaderResolver) probeMembers(ctx context.Context, info CopysetInfo) (uint32, proto.EndPoint, bool) {
	span := trace.SpanFromContextSafe(ctx)
	n := len(info.Members)
	if n == 0 {
		return 0, proto.EndPoint{}, false
	}

	start := info.CurrentLeaderIndex
	if start < 0 || start >= n {
		start = 0
	}

	for i := 0; i < n; i++ {
		member := info.Members[(start+i)%n]

		callCtx, cancel := context.WithTimeout(ctx, time.Duration(r.opts.GetLeaderRPCTimeoutMs)*time.Millisecond)
		memberID, endpoint, err := r.group.GetLeader(callCtx, info.PoolID, info.CopysetID, member.Endpoint)
		cancel()
		if err == nil {
			return memberID, endpoint, true
		}
		span.Debugf("get leader probe to member %d failed: %s", member.MemberID, err)
	}
	return 0, proto.EndPoint{}, false
}

// tryAuthoritativeRefresh is the slow path: pull the copyset's current
// membership from the metadata service and install it. If hint is
// non-empty and appears in the refreshed membership, it is translated
// to a member id and installed as the leader.
func (r *LeaderResolver) tryAuthoritativeRefresh(ctx context.Context, key CopysetKey, hint proto.EndPoint) (proto.MemberEntry, bool) {
	span := trace.SpanFromContextSafe(ctx)

	copysets, err := r.mds.GetServerList(ctx, key.PoolID, []uint32{key.CopysetID})
	if err != nil {
		span.Warnf("get server list from metadata service failed for copyset %s: %s", key, err)
		return proto.MemberEntry{}, false
	}
	if len(copysets) == 0 {
		span.Warnf("metadata service returned empty server list for copyset %s", key)
		return proto.MemberEntry{}, false
	}

	wire := copysets[0]
	info := CopysetInfo{
		PoolID:             wire.PoolId,
		CopysetID:          wire.CopysetId,
		Members:            wire.Members,
		CurrentLeaderIndex: unknownLeaderIndex,
	}
	r.table.Put(key, info)

	if hint.Empty() {
		return proto.MemberEntry{}, false
	}

	found := false
	for _, m := range info.Members {
		if m.Endpoint.Equal(hint) {
			found = true
			break
		}
	}
	if !found {
		return proto.MemberEntry{}, false
	}

	memberID, ok, err := r.mds.GetChunkServerID(ctx, hint)
	if err != nil || !ok {
		span.Warnf("resolve chunkserver id for endpoint %+v failed: %v, ok=%v", hint, err, ok)
		return proto.MemberEntry{}, false
	}

	if r.table.UpdateLeader(key, memberID) != updateLeaderOK {
		return proto.MemberEntry{}, false
	}
	refreshed, _ := r.table.Get(key)
	return refreshed.Leader(), true
}

// UpdateLeader is the non-blocking invalidation path: a storage node
// replied "not leader; try X". No RPC is made here. If memberID is not
// among the copyset's cached members, the entry is marked unstable
// instead of erroring - the next ResolveLeader's group probe will
// rediscover the real membership and carry the endpoint hint into the
// metadata-service fallback itself.
func (r *LeaderResolver) UpdateLeader(poolID, copysetID, memberID uint32, endpoint proto.EndPoint) error {
	key := CopysetKey{PoolID: poolID, CopysetID: copysetID}

	switch r.table.UpdateLeader(key, memberID) {
	case updateLeaderOK:
		return nil
	case updateLeaderUnknownMember:
		r.table.MarkUnstable(key)
		return nil
	default:
		return cerrors.ErrNoSuchCopyset
	}
}

// SetChunkserverUnstable marks every copyset memberID participates in
// as leader-unstable, provided the cached leader is memberID or
// unknown. It never evicts memberID from any copyset.
func (r *LeaderResolver) SetChunkserverUnstable(memberID uint32) {
	for _, key := range r.members.CopysetsOf(memberID) {
		r.table.markUnstableIfLeaderIs(key, memberID)
	}
}

// SetServerUnstable asks the metadata service which storage nodes live
// on ip, then marks each one unstable. A metadata-service failure is
// logged and returned as a *cerrors.Error with
// CodeMetadataServiceUnreachable; nothing is marked in that case.
func (r *LeaderResolver) SetServerUnstable(ctx context.Context, ip string) error {
	span := trace.SpanFromContextSafe(ctx)

	memberIDs, err := r.mds.ListChunkServerInServer(ctx, ip)
	if err != nil {
		span.Warnf("list chunkservers on server %s failed: %s", ip, err)
		return cerrors.NewMetadataServiceError(cerrors.CodeMetadataServiceUnreachable, err)
	}

	for _, id := range memberIDs {
		r.SetChunkserverUnstable(id)
	}
	return nil
}
