// Package bson provides the BSON codec.
package bson

import (
	"github.com/pastemagic/pastemagic"
	"go.mongodb.org/mongo-driver/bson"
)

// bsonCodec implements pastemagic.Codec for BSON documents.
type bsonCodec struct{}

// New returns a BSON codec.
func New() pastemagic.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as a BSON document. v must be a struct, a map or a
// bson.D.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}
