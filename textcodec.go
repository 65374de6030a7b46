package pastemagic

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Transcoder converts text to and from one reversible representation.
type Transcoder interface {
	// Format returns the representation handled by the transcoder.
	Format() TextFormat

	// Encode converts plain text into the representation.
	Encode(s string) (string, error)

	// Decode converts the representation back into plain text.
	Decode(s string) (string, error)
}

var (
	reUnicodeEscape = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
	reDecimalList   = regexp.MustCompile(`^(\d+,)*\d+$`)
	reHexText       = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	reBase64Text    = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
)

var errInvalidUTF8 = errors.New("invalid utf-8 sequence")

// base64Transcoder writes the UTF-8 bytes of the text as standard base64.
type base64Transcoder struct{}

// Base64Transcoder returns a transcoder for standard padded base64.
func Base64Transcoder() Transcoder {
	return &base64Transcoder{}
}

func (t *base64Transcoder) Format() TextFormat { return FormatBase64 }

func (t *base64Transcoder) Encode(s string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func (t *base64Transcoder) Decode(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", newFormatError(ErrDecode, FormatBase64, err)
	}
	if !utf8.Valid(raw) {
		return "", newFormatError(ErrDecode, FormatBase64, errInvalidUTF8)
	}
	return string(raw), nil
}

// hexTranscoder writes the UTF-8 bytes of the text as lowercase hex.
type hexTranscoder struct{}

// HexTranscoder returns a transcoder for hexadecimal byte strings.
// Decoding tolerates an odd length by assuming a leading zero nibble and
// replaces invalid UTF-8 with U+FFFD.
func HexTranscoder() Transcoder {
	return &hexTranscoder{}
}

func (t *hexTranscoder) Format() TextFormat { return FormatHex }

func (t *hexTranscoder) Encode(s string) (string, error) {
	return hex.EncodeToString([]byte(s)), nil
}

func (t *hexTranscoder) Decode(s string) (string, error) {
	if len(s)%2 != 0 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", newFormatError(ErrDecode, FormatHex, err)
	}
	return decodeUTF8Lossy(raw), nil
}

// urlTranscoder percent-encodes every byte outside the URI component
// unreserved set.
type urlTranscoder struct{}

// URLTranscoder returns a transcoder for percent-encoded URI components.
func URLTranscoder() Transcoder {
	return &urlTranscoder{}
}

func (t *urlTranscoder) Format() TextFormat { return FormatURL }

func (t *urlTranscoder) Encode(s string) (string, error) {
	return encodeURIComponent(s), nil
}

func (t *urlTranscoder) Decode(s string) (string, error) {
	out, err := decodeURIComponent(s)
	if err != nil {
		return "", newFormatError(ErrDecode, FormatURL, err)
	}
	return out, nil
}

// unicodeTranscoder writes every UTF-16 code unit as a \uXXXX escape.
type unicodeTranscoder struct{}

// UnicodeTranscoder returns a transcoder for \uXXXX escapes. Characters
// outside the BMP are written as surrogate pairs. Decoding replaces escapes
// in place and leaves any other text untouched.
func UnicodeTranscoder() Transcoder {
	return &unicodeTranscoder{}
}

func (t *unicodeTranscoder) Format() TextFormat { return FormatUnicode }

func (t *unicodeTranscoder) Encode(s string) (string, error) {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&b, `\u%04x`, u)
	}
	return b.String(), nil
}

func (t *unicodeTranscoder) Decode(s string) (string, error) {
	var b strings.Builder
	var units []uint16
	flush := func() {
		if len(units) > 0 {
			b.WriteString(string(utf16.Decode(units)))
			units = units[:0]
		}
	}

	last := 0
	for _, m := range reUnicodeEscape.FindAllStringSubmatchIndex(s, -1) {
		if m[0] != last {
			flush()
			b.WriteString(s[last:m[0]])
		}
		v, _ := strconv.ParseUint(s[m[2]:m[3]], 16, 16)
		units = append(units, uint16(v))
		last = m[1]
	}
	flush()
	b.WriteString(s[last:])
	return b.String(), nil
}

// asciiTranscoder writes UTF-16 code units as comma separated decimals.
type asciiTranscoder struct{}

// ASCIITranscoder returns a transcoder for character codes ("72,105").
func ASCIITranscoder() Transcoder {
	return &asciiTranscoder{}
}

func (t *asciiTranscoder) Format() TextFormat { return FormatASCII }

func (t *asciiTranscoder) Encode(s string) (string, error) {
	units := utf16.Encode([]rune(s))
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = strconv.Itoa(int(u))
	}
	return strings.Join(parts, ","), nil
}

func (t *asciiTranscoder) Decode(s string) (string, error) {
	parts := strings.Split(s, ",")
	units := make([]uint16, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return "", newFormatError(ErrDecode, FormatASCII, fmt.Errorf("code %q: %w", p, err))
		}
		units = append(units, uint16(v))
	}
	return string(utf16.Decode(units)), nil
}

// utf8BytesTranscoder writes UTF-8 bytes as comma separated decimals.
type utf8BytesTranscoder struct{}

// UTF8BytesTranscoder returns a transcoder for byte lists ("228,189,160").
// Decoding replaces invalid UTF-8 with U+FFFD.
func UTF8BytesTranscoder() Transcoder {
	return &utf8BytesTranscoder{}
}

func (t *utf8BytesTranscoder) Format() TextFormat { return FormatUTF8Bytes }

func (t *utf8BytesTranscoder) Encode(s string) (string, error) {
	parts := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		parts[i] = strconv.Itoa(int(s[i]))
	}
	return strings.Join(parts, ","), nil
}

func (t *utf8BytesTranscoder) Decode(s string) (string, error) {
	parts := strings.Split(s, ",")
	raw := make([]byte, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return "", newFormatError(ErrDecode, FormatUTF8Bytes, fmt.Errorf("byte %q: %w", p, err))
		}
		raw = append(raw, byte(v))
	}
	return decodeUTF8Lossy(raw), nil
}

// builtinTranscoders returns the transcoders in display order.
func builtinTranscoders() []Transcoder {
	return []Transcoder{
		Base64Transcoder(),
		HexTranscoder(),
		URLTranscoder(),
		UnicodeTranscoder(),
		ASCIITranscoder(),
		UTF8BytesTranscoder(),
	}
}

// TranscoderFor returns the transcoder for a text format.
func TranscoderFor(f TextFormat) (Transcoder, error) {
	for _, t := range builtinTranscoders() {
		if t.Format() == f {
			return t, nil
		}
	}
	return nil, newConfigError(ErrUnsupportedFormat, string(f), "")
}

// DetectTextFormat guesses which representation s is written in.
// Percent escapes win over \u escapes, which win over decimal lists, hex and
// base64, in that order. Anything else is FormatPlain.
func DetectTextFormat(s string) TextFormat {
	s = strings.TrimSpace(s)
	if s == "" {
		return FormatPlain
	}

	if rePercentByte.MatchString(s) {
		if _, err := decodeURIComponent(s); err == nil {
			return FormatURL
		}
	}

	if reUnicodeEscape.MatchString(s) {
		return FormatUnicode
	}

	if reDecimalList.MatchString(s) {
		for _, p := range strings.Split(s, ",") {
			if n, err := strconv.Atoi(p); err != nil || n > 255 {
				return FormatASCII
			}
		}
		return FormatUTF8Bytes
	}

	if reHexText.MatchString(s) && len(s)%2 == 0 {
		return FormatHex
	}

	if reBase64Text.MatchString(s) && len(s)%4 == 0 {
		if _, err := base64.StdEncoding.DecodeString(s); err == nil {
			return FormatBase64
		}
	}

	return FormatPlain
}

// Operation records what Transcode did for one format.
type Operation string

const (
	OperationEncode Operation = "encode"
	OperationDecode Operation = "decode"
)

// TranscodeResult is the outcome of one format.
type TranscodeResult struct {
	Format    TextFormat `json:"format" yaml:"format" xml:"format"`
	Operation Operation  `json:"operation" yaml:"operation" xml:"operation"`
	Output    string     `json:"output,omitempty" yaml:"output,omitempty" xml:"output,omitempty"`
	Error     string     `json:"error,omitempty" yaml:"error,omitempty" xml:"error,omitempty"`
}

// TranscodeReport holds the results of every format for one input.
type TranscodeReport struct {
	Input    string            `json:"input" yaml:"input" xml:"input"`
	Detected TextFormat        `json:"detected" yaml:"detected" xml:"detected"`
	Active   TextFormat        `json:"active" yaml:"active" xml:"active"`
	Results  []TranscodeResult `json:"results" yaml:"results" xml:"results>result"`
}

// Result returns the result for a format.
func (r *TranscodeReport) Result(f TextFormat) (TranscodeResult, bool) {
	for _, res := range r.Results {
		if res.Format == f {
			return res, true
		}
	}
	return TranscodeResult{}, false
}

// Transcode runs every format against s. The format s is detected as gets
// decoded; every other format encodes s. Active is the format a viewer
// should show first.
func Transcode(s string) *TranscodeReport {
	s = strings.TrimSpace(s)
	detected := DetectTextFormat(s)

	report := &TranscodeReport{
		Input:    s,
		Detected: detected,
		Active:   FormatBase64,
	}

	switch detected {
	case FormatUnicode, FormatHex, FormatUTF8Bytes, FormatASCII, FormatURL:
		report.Active = detected
	}

	for _, t := range builtinTranscoders() {
		res := TranscodeResult{Format: t.Format(), Operation: OperationEncode}
		var out string
		var err error
		if t.Format() == detected {
			res.Operation = OperationDecode
			out, err = t.Decode(s)
		} else {
			out, err = t.Encode(s)
		}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Output = out
		}
		report.Results = append(report.Results, res)
	}

	return report
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isURIUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// decodeURIComponent reverses encodeURIComponent. Malformed escapes and
// escapes that do not form valid UTF-8 are errors.
func decodeURIComponent(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", errInvalidUTF8
	}
	return out, nil
}

// decodeUTF8Lossy converts bytes to a string, replacing each invalid byte
// with U+FFFD.
func decodeUTF8Lossy(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.Write(raw[:size])
		}
		raw = raw[size:]
	}
	return b.String()
}
