package cache

import "github.com/opencurve/curve-metacache/proto"

// unknownLeaderIndex is the sentinel CurrentLeaderIndex takes when no
// member is known to be the leader.
const unknownLeaderIndex = -1

// CopysetInfo is the mutable record CopysetTable holds for a replica
// group. Values handed to callers are copies (see Clone); the table
// never hands out a pointer into its own live state.
type CopysetInfo struct {
	PoolID    uint32
	CopysetID uint32

	// Members is the ordered replica list; the order is the round-robin
	// probe order the refresh ladder's group probe starts from.
	Members []proto.MemberEntry

	// CurrentLeaderIndex indexes into Members, or is unknownLeaderIndex.
	CurrentLeaderIndex int

	// LeaderUnstable means the last interaction suggests the leader has
	// moved or is unreachable; the next ResolveLeader must refresh
	// before returning.
	LeaderUnstable bool

	// AppliedIndex is the highest consensus-log index this client has
	// observed applied on this group. Monotonically non-decreasing.
	AppliedIndex uint64
}

func (c CopysetInfo) Key() CopysetKey {
	return CopysetKey{PoolID: c.PoolID, CopysetID: c.CopysetID}
}

// Clone makes a deep-enough copy that the caller cannot observe
// subsequent mutation of the table's own Members slice.
func (c CopysetInfo) Clone() CopysetInfo {
	out := c
	out.Members = append([]proto.MemberEntry(nil), c.Members...)
	return out
}

// LeaderKnown reports whether CurrentLeaderIndex names a member.
func (c CopysetInfo) LeaderKnown() bool {
	return c.CurrentLeaderIndex != unknownLeaderIndex && c.CurrentLeaderIndex >= 0 && c.CurrentLeaderIndex < len(c.Members)
}

// Leader returns the current leader's member entry. Only valid when
// LeaderKnown is true.
func (c CopysetInfo) Leader() proto.MemberEntry {
	return c.Members[c.CurrentLeaderIndex]
}

func (c CopysetInfo) memberIndexOf(memberID uint32) int {
	for i := range c.Members {
		if c.Members[i].MemberID == memberID {
			return i
		}
	}
	return -1
}
