// Package rpc declares the wishlists.v1 services: procedure names, wire
// messages, the JSON codec, and handler/client constructors for connect.
package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// jsonCodec encodes plain Go messages with encoding/json and protobuf
// messages (emptypb.Empty) with protojson. It replaces connect's default
// "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

// WithJSON selects the JSON codec on a handler or a client.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
