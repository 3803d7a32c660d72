package ledger

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries plain Go structs over Connect. It replaces the protobuf JSON codec
// registered under the same name.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
