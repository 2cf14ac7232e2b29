package cache

import (
	"sync"

	"github.com/opencurve/curve-metacache/proto"
)

// chunkIndex maps a file-relative chunk position to its stable chunk
// identity. Write-once in normal operation; an entry may be
// overwritten by an authoritative update from the metadata service, in
// which case the last writer wins - both writers were told the same
// mapping, so correctness never depends on which one wins.
type chunkIndex struct {
	mu sync.RWMutex
	m  map[proto.ChunkIndex]proto.ChunkIDInfo
}

func newChunkIndex() *chunkIndex {
	return &chunkIndex{m: make(map[proto.ChunkIndex]proto.ChunkIDInfo)}
}

func (c *chunkIndex) Lookup(idx proto.ChunkIndex) (proto.ChunkIDInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.m[idx]
	return info, ok
}

func (c *chunkIndex) Upsert(idx proto.ChunkIndex, info proto.ChunkIDInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[idx] = info
}
