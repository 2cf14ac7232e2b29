package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/opencurve/curve-metacache/proto"
)

// fakeGroupProbe lets tests script per-endpoint GetLeader responses
// without a real network. probeCount records how many probes were
// actually issued, for assertions that cache hits skip RPCs entirely.
type fakeGroupProbe struct {
	mu sync.Mutex
	// responses maps the probed endpoint -> scripted response. A
	// missing entry means the probe to that endpoint fails.
	responses  map[proto.EndPoint]fakeGroupResponse
	probeCount int
}

type fakeGroupResponse struct {
	memberID uint32
	endpoint proto.EndPoint
}

func newFakeGroupProbe() *fakeGroupProbe {
	return &fakeGroupProbe{responses: make(map[proto.EndPoint]fakeGroupResponse)}
}

func (f *fakeGroupProbe) respond(probed proto.EndPoint, memberID uint32, leaderEndpoint proto.EndPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[probed] = fakeGroupResponse{memberID: memberID, endpoint: leaderEndpoint}
}

func (f *fakeGroupProbe) GetLeader(ctx context.Context, poolID, copysetID uint32, endpoint proto.EndPoint) (uint32, proto.EndPoint, error) {
	f.mu.Lock()
	f.probeCount++
	resp, ok := f.responses[endpoint]
	f.mu.Unlock()

	if !ok {
		return 0, proto.EndPoint{}, errors.New("fake: probe failed")
	}
	return resp.memberID, resp.endpoint, nil
}

// fakeMDS scripts the metadata service's three methods for tests.
type fakeMDS struct {
	mu sync.Mutex

	serverList       map[uint32][]proto.CopysetServerInfo // keyed by copysetID
	chunkServerIDs   map[proto.EndPoint]uint32
	chunkServersOnIP map[string][]uint32

	getServerListErr error
	// getServerListCalls counts GetServerList calls, for assertions that
	// a path never reached the metadata service.
	getServerListCalls int
}

func newFakeMDS() *fakeMDS {
	return &fakeMDS{
		serverList:       make(map[uint32][]proto.CopysetServerInfo),
		chunkServerIDs:   make(map[proto.EndPoint]uint32),
		chunkServersOnIP: make(map[string][]uint32),
	}
}

func (f *fakeMDS) setServerList(copysetID uint32, info proto.CopysetServerInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverList[copysetID] = []proto.CopysetServerInfo{info}
}

func (f *fakeMDS) setChunkServerID(endpoint proto.EndPoint, memberID uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkServerIDs[endpoint] = memberID
}

func (f *fakeMDS) setChunkServersOnIP(ip string, memberIDs []uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkServersOnIP[ip] = memberIDs
}

func (f *fakeMDS) GetServerList(ctx context.Context, poolID uint32, copysetIDs []uint32) ([]proto.CopysetServerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getServerListCalls++

	if f.getServerListErr != nil {
		return nil, f.getServerListErr
	}

	var out []proto.CopysetServerInfo
	for _, id := range copysetIDs {
		if info, ok := f.serverList[id]; ok {
			out = append(out, info...)
		}
	}
	return out, nil
}

func (f *fakeMDS) GetChunkServerID(ctx context.Context, endpoint proto.EndPoint) (uint32, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.chunkServerIDs[endpoint]
	return id, ok, nil
}

func (f *fakeMDS) ListChunkServerInServer(ctx context.Context, ip string) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chunkServersOnIP[ip], nil
}
