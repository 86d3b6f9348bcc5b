package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName 以 JSON 編碼訊息的 content-subtype (application/grpc+json)
const CodecName = "json"

// jsonCodec 讓服務不需要 protobuf 產生碼也能走 gRPC
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
