package client

import (
	gogoproto "github.com/gogo/protobuf/proto"
	"google.golang.org/grpc/encoding"
)

// gogoCodec overrides grpc's built-in "proto" codec so the hand-written
// wire messages in the proto package - which follow gogo/protobuf's
// Reset/String/ProtoMessage shape rather than the newer protoreflect
// API - marshal correctly over the wire.
type gogoCodec struct{}

func (gogoCodec) Marshal(v interface{}) ([]byte, error) {
	return gogoproto.Marshal(v.(gogoproto.Message))
}

func (gogoCodec) Unmarshal(data []byte, v interface{}) error {
	return gogoproto.Unmarshal(data, v.(gogoproto.Message))
}

func (gogoCodec) Name() string { return "proto" }

func init() {
	encoding.RegisterCodec(gogoCodec{})
}
