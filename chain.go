package pastemagic

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// EncodeChain writes raw bytes as text through a chain of encodings.
//
// The chain is listed outer to inner, so the last entry is applied first:
// EncodeChain(b, []Encoding{EncodingBase64, EncodingHex}) is the base64 of
// the hex text of b. An empty chain means UTF8.
func EncodeChain(data []byte, chain []Encoding) (string, error) {
	if len(chain) == 0 {
		chain = []Encoding{EncodingUTF8}
	}

	cur := data
	for i := len(chain) - 1; i >= 0; i-- {
		switch normalizeEncoding(chain[i]) {
		case EncodingUTF8:
		case EncodingHex:
			cur = []byte(hex.EncodeToString(cur))
		case EncodingBase64:
			cur = []byte(base64.StdEncoding.EncodeToString(cur))
		case EncodingBase64URLSafe:
			cur = []byte(base64.RawURLEncoding.EncodeToString(cur))
		default:
			return "", newConfigError(ErrUnsupportedEncoding, string(chain[i]), "")
		}
	}

	if !utf8.Valid(cur) {
		return "", fmt.Errorf("%w: bytes are not valid utf-8, add a HEX or BASE64 layer", ErrEncode)
	}
	return string(cur), nil
}

// DecodeChain reverses EncodeChain, peeling layers from the outside in.
// BASE64_URLSAFE accepts input with or without padding.
func DecodeChain(text string, chain []Encoding) ([]byte, error) {
	if len(chain) == 0 {
		chain = []Encoding{EncodingUTF8}
	}

	cur := []byte(text)
	for _, enc := range chain {
		var err error
		switch normalizeEncoding(enc) {
		case EncodingUTF8:
		case EncodingHex:
			cur, err = hex.DecodeString(strings.TrimSpace(string(cur)))
		case EncodingBase64:
			cur, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(cur)))
		case EncodingBase64URLSafe:
			cur, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(string(cur)), "="))
		default:
			return nil, newConfigError(ErrUnsupportedEncoding, string(enc), "")
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s layer: %w", ErrDecode, enc, err)
		}
	}

	return cur, nil
}

// HasEncoding reports whether the chain contains enc.
func HasEncoding(chain []Encoding, enc Encoding) bool {
	for _, e := range chain {
		if normalizeEncoding(e) == enc {
			return true
		}
	}
	return false
}

func normalizeEncoding(e Encoding) Encoding {
	return Encoding(strings.ToUpper(strings.TrimSpace(string(e))))
}
