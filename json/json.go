// Package json provides the JSON codec.
package json

import (
	"bytes"
	"encoding/json"

	"github.com/pastemagic/pastemagic"
)

// jsonCodec implements pastemagic.Codec for JSON.
type jsonCodec struct {
	indent string
}

// New returns a compact JSON codec.
func New() pastemagic.Codec {
	return &jsonCodec{}
}

// NewIndent returns a JSON codec that pretty-prints with indent and keeps
// HTML characters unescaped.
func NewIndent(indent string) pastemagic.Codec {
	return &jsonCodec{indent: indent}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	if c.indent == "" {
		return json.Marshal(v)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", c.indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal decodes JSON data into v.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
