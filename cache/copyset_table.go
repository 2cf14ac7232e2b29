package cache

import (
	"strconv"
	"sync"

	"github.com/opencurve/curve-metacache/metrics"
)

// updateLeaderResult is CopysetTable.UpdateLeader's three-way outcome,
// per spec: ok, unknown-member (the caller must recover via the
// metadata service), or not-found.
type updateLeaderResult int

const (
	updateLeaderOK updateLeaderResult = iota
	updateLeaderUnknownMember
	updateLeaderNotFound
)

// copysetTable maps (poolId, copysetId) to the current CopysetInfo.
//
// Lock ordering discipline, fixed globally: this table's lock is
// always acquired before memberIndex's. Put widens its critical
// section to cover both the map swap and the MemberIndex diff
// application under this table's single write lock, closing the
// window where an observer could see the two structures disagree -
// the open question in the source spec is decided in favor of that
// stronger guarantee over the read concurrency it costs.
type copysetTable struct {
	mu      sync.RWMutex
	m       map[CopysetKey]CopysetInfo
	members *memberIndex
}

func newCopysetTable(members *memberIndex) *copysetTable {
	return &copysetTable{
		m:       make(map[CopysetKey]CopysetInfo),
		members: members,
	}
}

func (t *copysetTable) Get(key CopysetKey) (CopysetInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.m[key]
	if !ok {
		return CopysetInfo{}, false
	}
	return info.Clone(), true
}

// Put installs info under key, reconciling memberIndex so that every
// member of info is bound to key and no member that left the group
// remains bound. AppliedIndex never regresses: a refresh that does not
// itself carry a newer applied index keeps the one already cached.
func (t *copysetTable) Put(key CopysetKey, info CopysetInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, hadOld := t.m[key]
	if hadOld && old.AppliedIndex > info.AppliedIndex {
		info.AppliedIndex = old.AppliedIndex
	}
	t.m[key] = info
	t.setAppliedIndexGauge(key, info.AppliedIndex)

	t.members.mu.Lock()
	defer t.members.mu.Unlock()

	newIDs := make(map[uint32]struct{}, len(info.Members))
	for _, m := range info.Members {
		newIDs[m.MemberID] = struct{}{}
		t.members.addBindingLocked(m.MemberID, key)
	}
	if hadOld {
		for _, m := range old.Members {
			if _, stillThere := newIDs[m.MemberID]; !stillThere {
				t.members.removeBindingLocked(m.MemberID, key)
			}
		}
	}
}

// UpdateLeader sets currentLeaderIndex to memberID's position and
// clears leaderUnstable, provided memberID is among the copyset's
// members.
func (t *copysetTable) UpdateLeader(key CopysetKey, memberID uint32) updateLeaderResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.m[key]
	if !ok {
		return updateLeaderNotFound
	}

	idx := info.memberIndexOf(memberID)
	if idx == -1 {
		return updateLeaderUnknownMember
	}

	info.CurrentLeaderIndex = idx
	info.LeaderUnstable = false
	t.m[key] = info
	return updateLeaderOK
}

// UpdateAppliedIndex sets appliedIndex to max(current, value). No-op
// if the entry is absent.
func (t *copysetTable) UpdateAppliedIndex(key CopysetKey, value uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.m[key]
	if !ok {
		return
	}
	if value > info.AppliedIndex {
		info.AppliedIndex = value
		t.m[key] = info
		t.setAppliedIndexGauge(key, info.AppliedIndex)
	}
}

// setAppliedIndexGauge samples the current applied index into the
// per-copyset gauge. Called with t.mu already held.
func (t *copysetTable) setAppliedIndexGauge(key CopysetKey, value uint64) {
	metrics.AppliedIndex.WithLabelValues(
		strconv.FormatUint(uint64(key.PoolID), 10),
		strconv.FormatUint(uint64(key.CopysetID), 10),
	).Set(float64(value))
}

func (t *copysetTable) GetAppliedIndex(key CopysetKey) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m[key].AppliedIndex
}

func (t *copysetTable) MarkUnstable(key CopysetKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.m[key]
	if !ok {
		return
	}
	info.LeaderUnstable = true
	t.m[key] = info
}

func (t *copysetTable) IsLeaderMayChange(key CopysetKey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.m[key]
	if !ok {
		return false
	}
	return info.LeaderUnstable || !info.LeaderKnown()
}

// markUnstableIfLeaderIs sets leaderUnstable on key when the cached
// leader is memberID or is unknown. Used by SetChunkserverUnstable,
// which takes key from memberIndex. A key with no table entry (as after
// AddMemberBinding seeds a binding before any Put) is skipped.
func (t *copysetTable) markUnstableIfLeaderIs(key CopysetKey, memberID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.m[key]
	if !ok {
		return
	}
	if !info.LeaderKnown() || info.Leader().MemberID == memberID {
		info.LeaderUnstable = true
		t.m[key] = info
	}
}
