// Package msgpack provides the MessagePack codec.
package msgpack

import (
	"bytes"

	"github.com/pastemagic/pastemagic"
	"github.com/vmihailenco/msgpack/v5"
)

// msgpackCodec implements pastemagic.Codec for MessagePack. Struct fields
// are named by their json tags so records look the same in every format.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() pastemagic.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack data into v.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
