// Package pastemagic inspects pasted text and runs the tool that fits it.
//
// Detect classifies content with an ordered cascade of checks (IP
// addresses and subnets, cron expressions, timestamps, dates, JSON, URLs,
// domain names) and falls back to KindEncoded. Each kind has a matching tool
// in this package:
//
//   - ParseCIDR, ParseIPv6CIDR, ClassifyIP for addresses and subnets
//   - NextRuns for cron expressions
//   - ParseTime and Now for timestamps and dates
//   - FormatJSON, MinifyJSON, LocateJSONError, ConvertJSON for JSON
//   - InspectURL for URLs and encoded URLs
//   - Transcode for everything else
//
// DNS and IP geolocation lookups need the network and live in
// internal/lookup.
//
// # Ciphers
//
// Encrypt and Decrypt take a CipherConfig naming an algorithm string such as
// "AES/CBC/PKCS5Padding", "SM4/ECB/NoPadding" or "RSA/ECB/OAEPPadding". Key
// material, plaintext and ciphertext are each written through an encoding
// chain (UTF8, HEX, BASE64, BASE64_URLSAFE) listed outer to inner:
//
//	cfg := pastemagic.CipherConfig{
//	    Algorithm: "AES/CBC/PKCS5Padding",
//	    Key:       pastemagic.Material{Value: "30313233343536373839616263646566", Encoding: []pastemagic.Encoding{pastemagic.EncodingHex}},
//	    IV:        pastemagic.Material{Value: "abcdef9876543210"},
//	}
//	ct, _ := pastemagic.Encrypt(ctx, "hello", cfg)
//	pt, _ := pastemagic.Decrypt(ctx, ct, cfg)
//
// # Field processing
//
// Processor serializes records through a Codec and transforms fields named
// in struct tags on the way:
//
//	store.encrypt:"aes"   - seal on Store
//	load.decrypt:"aes"    - open on Load
//	send.mask:"secret"    - mask on Send (secret, pem, ip)
//	send.redact:"***"     - replace on Send
//
// Codecs live in the json, yaml, xml, msgpack and bson sub-packages.
//
// # Signals
//
// The package does not log. Detection, cipher and processor operations emit
// capitan signals (SignalDetected, SignalEncryptComplete, ...) that callers
// can observe.
package pastemagic

// Cloner allows types to provide deep copy logic.
// Processor clones records before transforming them so callers' values are
// never mutated.
//
// For value types without pointers, slices or maps Clone can return the
// receiver:
//
//	func (r Record) Clone() Record { return r }
type Cloner[T any] interface {
	Clone() T
}

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}
