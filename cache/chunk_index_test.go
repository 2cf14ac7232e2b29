package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencurve/curve-metacache/proto"
)

func TestChunkIndexRoundTrip(t *testing.T) {
	idx := newChunkIndex()

	_, ok := idx.Lookup(proto.ChunkIndex(7))
	require.False(t, ok)

	want := proto.ChunkIDInfo{ChunkID: 42, PoolID: 1, CopysetID: 2}
	idx.Upsert(proto.ChunkIndex(7), want)

	got, ok := idx.Lookup(proto.ChunkIndex(7))
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestChunkIndexUpsertOverwrites(t *testing.T) {
	idx := newChunkIndex()
	idx.Upsert(proto.ChunkIndex(1), proto.ChunkIDInfo{ChunkID: 1, PoolID: 1, CopysetID: 1})
	idx.Upsert(proto.ChunkIndex(1), proto.ChunkIDInfo{ChunkID: 1, PoolID: 1, CopysetID: 2})

	got, ok := idx.Lookup(proto.ChunkIndex(1))
	require.True(t, ok)
	require.Equal(t, uint32(2), got.CopysetID)
}
