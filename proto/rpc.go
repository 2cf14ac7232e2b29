package proto

import "fmt"

// The types below are the wire messages for the two RPC families the
// cache's external collaborators speak: the per-member "who is leader"
// group probe, and the metadata service's copyset/chunkserver lookups.
// They follow gogo/protobuf's minimal Message shape (Reset/String/
// ProtoMessage plus protobuf field tags) rather than stdlib-only
// structs, so the wire codec concern - explicitly out of scope for the
// cache itself - still rides on the same marshaling stack the rest of
// this module's RPC traffic uses.

type GetLeaderRequest struct {
	PoolId    uint32 `protobuf:"varint,1,opt,name=pool_id,json=poolId" json:"pool_id,omitempty"`
	CopysetId uint32 `protobuf:"varint,2,opt,name=copyset_id,json=copysetId" json:"copyset_id,omitempty"`
}

func (m *GetLeaderRequest) Reset()         { *m = GetLeaderRequest{} }
func (m *GetLeaderRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetLeaderRequest) ProtoMessage()    {}

type GetLeaderResponse struct {
	MemberId uint32   `protobuf:"varint,1,opt,name=member_id,json=memberId" json:"member_id,omitempty"`
	Endpoint EndPoint `protobuf:"bytes,2,opt,name=endpoint" json:"endpoint"`
}

func (m *GetLeaderResponse) Reset()         { *m = GetLeaderResponse{} }
func (m *GetLeaderResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetLeaderResponse) ProtoMessage()    {}

type GetServerListRequest struct {
	PoolId     uint32   `protobuf:"varint,1,opt,name=pool_id,json=poolId" json:"pool_id,omitempty"`
	CopysetIds []uint32 `protobuf:"varint,2,rep,name=copyset_ids,json=copysetIds" json:"copyset_ids,omitempty"`
}

func (m *GetServerListRequest) Reset()         { *m = GetServerListRequest{} }
func (m *GetServerListRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetServerListRequest) ProtoMessage()    {}

// CopysetServerInfo is the MDS's wire representation of a copyset's
// membership; the cache translates it into cache.CopysetInfo on Put.
type CopysetServerInfo struct {
	PoolId    uint32        `protobuf:"varint,1,opt,name=pool_id,json=poolId" json:"pool_id,omitempty"`
	CopysetId uint32        `protobuf:"varint,2,opt,name=copyset_id,json=copysetId" json:"copyset_id,omitempty"`
	Members   []MemberEntry `protobuf:"bytes,3,rep,name=members" json:"members,omitempty"`
}

type GetServerListResponse struct {
	Copysets []CopysetServerInfo `protobuf:"bytes,1,rep,name=copysets" json:"copysets,omitempty"`
}

func (m *GetServerListResponse) Reset()         { *m = GetServerListResponse{} }
func (m *GetServerListResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetServerListResponse) ProtoMessage()    {}

type GetChunkServerIDRequest struct {
	Endpoint EndPoint `protobuf:"bytes,1,opt,name=endpoint" json:"endpoint"`
}

func (m *GetChunkServerIDRequest) Reset()         { *m = GetChunkServerIDRequest{} }
func (m *GetChunkServerIDRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetChunkServerIDRequest) ProtoMessage()    {}

type GetChunkServerIDResponse struct {
	Found    bool   `protobuf:"varint,1,opt,name=found" json:"found,omitempty"`
	MemberId uint32 `protobuf:"varint,2,opt,name=member_id,json=memberId" json:"member_id,omitempty"`
}

func (m *GetChunkServerIDResponse) Reset()         { *m = GetChunkServerIDResponse{} }
func (m *GetChunkServerIDResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetChunkServerIDResponse) ProtoMessage()    {}

type ListChunkServerInServerRequest struct {
	Ip string `protobuf:"bytes,1,opt,name=ip" json:"ip,omitempty"`
}

func (m *ListChunkServerInServerRequest) Reset()         { *m = ListChunkServerInServerRequest{} }
func (m *ListChunkServerInServerRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*ListChunkServerInServerRequest) ProtoMessage()    {}

type ListChunkServerInServerResponse struct {
	MemberIds []uint32 `protobuf:"varint,1,rep,name=member_ids,json=memberIds" json:"member_ids,omitempty"`
}

func (m *ListChunkServerInServerResponse) Reset()         { *m = ListChunkServerInServerResponse{} }
func (m *ListChunkServerInServerResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*ListChunkServerInServerResponse) ProtoMessage()    {}
