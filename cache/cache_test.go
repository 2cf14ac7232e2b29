package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "github.com/opencurve/curve-metacache/errors"
	"github.com/opencurve/curve-metacache/proto"
)

func fastOptions() Options {
	return Options{
		GetLeaderRetry:        3,
		RPCRetryIntervalUs:    1000,
		GetLeaderRPCTimeoutMs: 50,
	}
}

func ep(port uint32) proto.EndPoint {
	return proto.EndPoint{IP: "10.0.0.1", Port: port}
}

func newTestCache(opts Options, mds *fakeMDS, group *fakeGroupProbe) *Cache {
	return Init(Config{
		Options:        opts,
		MetadataClient: mds,
		GroupProbe:     group,
	})
}

// TestColdLeaderLookup covers the "cold lookup" scenario: a copyset
// known to the table but with no cached leader resolves through the
// group probe fast path without touching the metadata service.
func TestColdLeaderLookup(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	key := CopysetKey{PoolID: 1, CopysetID: 10}
	c.PutCopyset(key, CopysetInfo{
		PoolID:             1,
		CopysetID:          10,
		Members:            []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}, {MemberID: 2, Endpoint: ep(2)}},
		CurrentLeaderIndex: unknownLeaderIndex,
	})

	group.respond(ep(1), 2, ep(2))

	memberID, endpoint, err := c.ResolveLeader(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Equal(t, uint32(2), memberID)
	require.Equal(t, ep(2), endpoint)
	require.Equal(t, 0, mds.getServerListCalls)
}

// TestRepeatedResolveHitsCacheNotNetwork covers the cache-hit fast
// path: once a leader is known and stable, ResolveLeader never probes.
func TestRepeatedResolveHitsCacheNotNetwork(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	key := CopysetKey{PoolID: 1, CopysetID: 10}
	c.PutCopyset(key, CopysetInfo{
		PoolID:             1,
		CopysetID:          10,
		Members:            []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}},
		CurrentLeaderIndex: unknownLeaderIndex,
	})
	group.respond(ep(1), 1, ep(1))

	_, _, err := c.ResolveLeader(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Equal(t, 1, group.probeCount)

	_, _, err = c.ResolveLeader(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Equal(t, 1, group.probeCount, "second resolve should be served from cache")
}

// TestRedirect covers the redirect scenario: a storage node tells the
// client "not leader, try X" for a member the copyset already knows
// about. UpdateLeader applies it without any RPC.
func TestRedirect(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	key := CopysetKey{PoolID: 1, CopysetID: 10}
	c.PutCopyset(key, CopysetInfo{
		PoolID:             1,
		CopysetID:          10,
		Members:            []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}, {MemberID: 2, Endpoint: ep(2)}},
		CurrentLeaderIndex: 0,
	})

	err := c.UpdateLeader(1, 10, 2, ep(2))
	require.NoError(t, err)
	require.Equal(t, 0, group.probeCount)
	require.Equal(t, 0, mds.getServerListCalls)

	info, ok := c.GetCopyset(key)
	require.True(t, ok)
	require.True(t, info.LeaderKnown())
	require.Equal(t, uint32(2), info.Leader().MemberID)
}

// TestUnknownMemberRedirect covers the redirect scenario where the
// named member is not part of the cached copyset: the entry is marked
// unstable rather than erroring, and the next forced ResolveLeader
// rediscovers membership through the ladder (here, via the metadata
// service, since the group probe targets stale members).
func TestUnknownMemberRedirect(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	key := CopysetKey{PoolID: 1, CopysetID: 10}
	c.PutCopyset(key, CopysetInfo{
		PoolID:             1,
		CopysetID:          10,
		Members:            []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}},
		CurrentLeaderIndex: 0,
	})

	err := c.UpdateLeader(1, 10, 99, ep(99))
	require.NoError(t, err)
	require.True(t, c.IsLeaderMayChange(key))

	// The group still answers "who is leader" probes with the redirect
	// target; the cache does not yet know member 99 belongs to this
	// copyset, so it must fall through to the metadata service to learn
	// that membership before it can install 99 as leader.
	group.respond(ep(1), 99, ep(99))
	mds.setServerList(10, proto.CopysetServerInfo{
		PoolId:    1,
		CopysetId: 10,
		Members:   []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}, {MemberID: 99, Endpoint: ep(99)}},
	})
	mds.setChunkServerID(ep(99), 99)

	memberID, endpoint, err := c.ResolveLeader(context.Background(), 1, 10, true)
	require.NoError(t, err)
	require.Equal(t, uint32(99), memberID)
	require.Equal(t, ep(99), endpoint)
}

// TestHostLevelInvalidation covers SetServerUnstable: every copyset
// whose cached leader is a chunkserver on the given host (here member
// 1 leads both) is flagged for refresh before the next resolve,
// without any member being evicted.
func TestHostLevelInvalidation(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	keyA := CopysetKey{PoolID: 1, CopysetID: 1}
	keyB := CopysetKey{PoolID: 1, CopysetID: 2}
	c.PutCopyset(keyA, CopysetInfo{PoolID: 1, CopysetID: 1, Members: []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}}, CurrentLeaderIndex: 0})
	c.PutCopyset(keyB, CopysetInfo{PoolID: 1, CopysetID: 2, Members: []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}, {MemberID: 2, Endpoint: ep(2)}}, CurrentLeaderIndex: 0})

	mds.setChunkServersOnIP("10.0.0.1", []uint32{1})

	err := c.SetServerUnstable(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	require.True(t, c.IsLeaderMayChange(keyA))
	require.True(t, c.IsLeaderMayChange(keyB))

	infoA, ok := c.GetCopyset(keyA)
	require.True(t, ok)
	require.Len(t, infoA.Members, 1)
}

// TestLadderExhaustion covers the case where neither the group probe
// nor the metadata service can name a leader within the retry budget:
// ResolveLeader returns ErrLeaderUnknown and the entry is left marked
// unstable for the next caller to retry.
func TestLadderExhaustion(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	opts := Options{GetLeaderRetry: 2, RPCRetryIntervalUs: 1000, GetLeaderRPCTimeoutMs: 50}
	c := newTestCache(opts, mds, group)

	key := CopysetKey{PoolID: 1, CopysetID: 10}
	c.PutCopyset(key, CopysetInfo{
		PoolID:             1,
		CopysetID:          10,
		Members:            []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}},
		CurrentLeaderIndex: unknownLeaderIndex,
	})

	_, _, err := c.ResolveLeader(context.Background(), 1, 10, false)
	require.ErrorIs(t, err, cerrors.ErrLeaderUnknown)
	require.True(t, c.IsLeaderMayChange(key))
}

func TestResolveLeaderUnknownCopyset(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	_, _, err := c.ResolveLeader(context.Background(), 1, 999, false)
	require.ErrorIs(t, err, cerrors.ErrNoSuchCopyset)
}

// TestConcurrentResolveDedupedBySingleflight exercises many concurrent
// ResolveLeader calls against one copyset with no known leader, whose
// refreshes are shared through singleflight: every caller should
// observe a successful resolution. The number of probes is not
// asserted, since a caller that read the entry before one ladder run
// finished and calls in after it may start a run of its own.
func TestConcurrentResolveDedupedBySingleflight(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	key := CopysetKey{PoolID: 1, CopysetID: 10}
	c.PutCopyset(key, CopysetInfo{
		PoolID:             1,
		CopysetID:          10,
		Members:            []proto.MemberEntry{{MemberID: 1, Endpoint: ep(1)}},
		CurrentLeaderIndex: unknownLeaderIndex,
	})
	group.respond(ep(1), 1, ep(1))

	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, _, err := c.ResolveLeader(context.Background(), 1, 10, false)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
}

// TestAddMemberBindingSeedsIndexOutOfBand covers seeding the reverse
// index without a full PutCopyset: once a later PutCopyset installs
// the actual entry, the binding recorded out of band already lets
// SetChunkserverUnstable find it.
func TestAddMemberBindingSeedsIndexOutOfBand(t *testing.T) {
	mds := newFakeMDS()
	group := newFakeGroupProbe()
	c := newTestCache(fastOptions(), mds, group)

	key := CopysetKey{PoolID: 1, CopysetID: 10}
	c.AddMemberBinding(7, key)

	c.PutCopyset(key, CopysetInfo{
		PoolID:             1,
		CopysetID:          10,
		Members:            []proto.MemberEntry{{MemberID: 7, Endpoint: ep(7)}},
		CurrentLeaderIndex: 0,
	})

	c.SetChunkserverUnstable(7)
	require.True(t, c.IsLeaderMayChange(key))
}
