package grpcapi

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype clients use to select JSON, e.g. application/grpc+json.
const CodecName = "json"

// JSONCodec carries plain Go structs over gRPC without generated protobuf types.
type JSONCodec struct{}

var _ encoding.Codec = JSONCodec{}

func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(JSONCodec{})
}
