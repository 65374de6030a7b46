package pastemagic

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// URLContentType is the URL tool's reading of its input.
type URLContentType string

const (
	URLEncoded URLContentType = "url_encoded"
	URLBase64  URLContentType = "base64"
	URLHex     URLContentType = "hex"
	URLPlain   URLContentType = "url"
	URLOther   URLContentType = "other"
)

var rePrefixedHex = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]+$`)

// URLInspection is the result of InspectURL.
//
// QRPayload is the text a QR code should carry: the decoded text for encoded
// input, the input itself otherwise.
type URLInspection struct {
	Original    string         `json:"original" yaml:"original" xml:"original"`
	Type        URLContentType `json:"type" yaml:"type" xml:"type"`
	Encoded     string         `json:"encoded" yaml:"encoded" xml:"encoded"`
	Decoded     string         `json:"decoded" yaml:"decoded" xml:"decoded"`
	QRPayload   string         `json:"qrPayload" yaml:"qrPayload" xml:"qrPayload"`
	DecodeError string         `json:"decodeError,omitempty" yaml:"decodeError,omitempty" xml:"decodeError,omitempty"`
}

// InspectURL reads s as percent-encoded text, then strict base64, then hex
// (optionally 0x prefixed), then an absolute URL, and otherwise as plain
// text. Each encoded form is decoded and re-encoded for comparison.
func InspectURL(s string) (*URLInspection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	res := &URLInspection{Original: s}

	switch {
	case rePercentByte.MatchString(s):
		decoded, err := decodeURIComponent(s)
		if err != nil {
			res.Type = URLOther
			res.Decoded = s
			res.DecodeError = newFormatError(ErrDecode, FormatURL, err).Error()
			break
		}
		res.Type = URLEncoded
		res.Decoded = decoded
		res.Encoded = encodeURIComponent(decoded)
	case isStrictBase64(s):
		raw, _ := base64.StdEncoding.DecodeString(s)
		res.Type = URLBase64
		res.Decoded = bytesToText(raw)
		res.Encoded = base64.StdEncoding.EncodeToString(raw)
	case rePrefixedHex.MatchString(s) && len(s)%2 == 0:
		raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
		if err != nil {
			res.Type = URLOther
			res.Decoded = s
			res.DecodeError = newFormatError(ErrDecode, FormatHex, err).Error()
			break
		}
		res.Type = URLHex
		res.Decoded = bytesToText(raw)
		res.Encoded = hex.EncodeToString(raw)
	case isAbsoluteURL(s):
		res.Type = URLPlain
		res.Encoded = encodeURIComponent(s)
		res.Decoded = s
	default:
		res.Type = URLOther
		res.Encoded = encodeURIComponent(s)
		res.Decoded = s
	}

	switch res.Type {
	case URLEncoded, URLBase64, URLHex:
		res.QRPayload = res.Decoded
	default:
		res.QRPayload = s
	}

	return res, nil
}

// isStrictBase64 accepts only canonical standard base64 that re-encodes to
// exactly the same text.
func isStrictBase64(s string) bool {
	if !reBase64Text.MatchString(s) {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return false
	}
	return base64.StdEncoding.EncodeToString(raw) == s
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

// bytesToText keeps valid UTF-8 as is and maps other bytes one to one onto
// Latin-1 characters.
func bytesToText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
