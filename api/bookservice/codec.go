package bookservice

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName intentionally shadows grpc's built-in "proto" codec name.
// grpc-go selects a codec by name from the request's content-subtype,
// and every grpc client defaults to requesting "proto". Registering
// under that name lets this service speak gRPC's wire framing (length
// prefix + HTTP/2 trailers, all handled by grpc-go) while marshaling
// plain Go structs with encoding/json instead of depending on
// generated protobuf message types this module never had a .proto
// file or protoc toolchain to produce.
const codecName = "proto"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
