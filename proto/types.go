package proto

// EndPoint is a network address, compared by value.
type EndPoint struct {
	IP   string `protobuf:"bytes,1,opt,name=ip"`
	Port uint32 `protobuf:"varint,2,opt,name=port"`
}

func (e EndPoint) Empty() bool {
	return e.IP == "" && e.Port == 0
}

func (e EndPoint) Equal(o EndPoint) bool {
	return e.IP == o.IP && e.Port == o.Port
}

// MemberEntry is one replica of a copyset.
type MemberEntry struct {
	MemberID uint32   `protobuf:"varint,1,opt,name=member_id,json=memberId"`
	Endpoint EndPoint `protobuf:"bytes,2,opt,name=endpoint"`
}

// ChunkIDInfo is the stable identity of a chunk, immutable once learned.
type ChunkIDInfo struct {
	ChunkID   uint64
	PoolID    uint32
	CopysetID uint32
}

// ChunkIndex is a file-relative chunk position, the key ChunkIndex maps
// from.
type ChunkIndex uint64
