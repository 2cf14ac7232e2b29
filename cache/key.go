package cache

import "fmt"

// CopysetKey is the structured composite key CopysetTable and
// MemberIndex are addressed by. A plain comparable struct is used
// instead of the "{poolId}_{copysetId}" string-concatenation key the
// C++ source built (safe there only because both ids are decimal
// integers encoded without ambiguity) - a structured key can never
// collide across the numeric ranges of the two ids.
type CopysetKey struct {
	PoolID    uint32
	CopysetID uint32
}

func (k CopysetKey) String() string {
	return fmt.Sprintf("%d_%d", k.PoolID, k.CopysetID)
}
