package pastemagic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// IsJSONDocument reports whether the JSON tool applies to content: the
// trimmed text must open an object or an array.
func IsJSONDocument(content string) bool {
	s := strings.TrimSpace(content)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// FormatJSON pretty-prints a JSON document with four space indentation,
// keeping the original key order.
func FormatJSON(content string) (string, error) {
	doc, lead := trimJSONSpace(content)
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(doc), "", "    "); err != nil {
		return "", newJSONError(content, lead, err)
	}
	return buf.String(), nil
}

// MinifyJSON removes insignificant whitespace from a JSON document.
func MinifyJSON(content string) (string, error) {
	doc, lead := trimJSONSpace(content)
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(doc)); err != nil {
		return "", newJSONError(content, lead, err)
	}
	return buf.String(), nil
}

// trimJSONSpace strips JSON whitespace from both ends and returns the number
// of bytes dropped from the front.
func trimJSONSpace(content string) (string, int) {
	rest := strings.TrimLeft(content, jsonSpace)
	return strings.TrimRight(rest, jsonSpace), len(content) - len(rest)
}

const jsonSpace = " \t\r\n"

// JSONErrorContext is the text around a syntax error.
type JSONErrorContext struct {
	Before string `json:"before" yaml:"before" xml:"before"`
	Char   string `json:"char" yaml:"char" xml:"char"`
	After  string `json:"after" yaml:"after" xml:"after"`
}

// JSONError locates a syntax error in a JSON document.
// Line and Column are 1-based; Position is a 0-based character index.
type JSONError struct {
	Line       int              `json:"line" yaml:"line" xml:"line"`
	Column     int              `json:"column" yaml:"column" xml:"column"`
	Position   int              `json:"position" yaml:"position" xml:"position"`
	Context    JSONErrorContext `json:"context" yaml:"context" xml:"context"`
	RawMessage string           `json:"rawMessage" yaml:"rawMessage" xml:"rawMessage"`
	Cause      error            `json:"-" yaml:"-" xml:"-"`
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("json syntax error at line %d, column %d: %s", e.Line, e.Column, e.RawMessage)
}

func (e *JSONError) Unwrap() []error {
	return []error{ErrInvalidInput, e.Cause}
}

// LocateJSONError returns nil when content is valid JSON, otherwise the
// location of the first syntax error with three characters of context on
// each side.
func LocateJSONError(content string) *JSONError {
	var v any
	err := json.Unmarshal([]byte(content), &v)
	if err == nil {
		return nil
	}
	return locate(content, 0, err)
}

// newJSONError locates err in content. shift is the number of bytes that
// preceded the text the parser saw.
func newJSONError(content string, shift int, err error) error {
	return locate(content, shift, err)
}

func locate(content string, shift int, err error) *JSONError {
	byteOffset := -1
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		// Offset counts the bytes read before the error, so the offending
		// byte is the one just before it.
		byteOffset = shift + int(syntaxErr.Offset) - 1
	}
	return locateAt(content, byteOffset, err)
}

// locateAt builds the error report for the byte at byteOffset. An offset
// outside content points at the last character.
func locateAt(content string, byteOffset int, err error) *JSONError {
	runes := []rune(content)
	if len(runes) == 0 {
		return &JSONError{Line: 1, Column: 1, RawMessage: err.Error(), Cause: err}
	}

	position := len(runes) - 1
	if byteOffset >= 0 && byteOffset < len(content) {
		position = len([]rune(content[:byteOffset]))
	}

	start := max(0, position-3)
	end := min(len(runes), position+4)

	upTo := string(runes[:position])
	line := strings.Count(upTo, "\n") + 1
	column := len([]rune(upTo[strings.LastIndex(upTo, "\n")+1:])) + 1

	return &JSONError{
		Line:     line,
		Column:   column,
		Position: position,
		Context: JSONErrorContext{
			Before: string(runes[start:position]),
			Char:   string(runes[position]),
			After:  string(runes[position+1 : end]),
		},
		RawMessage: err.Error(),
		Cause:      err,
	}
}

// ConvertJSON re-encodes a JSON document with another codec. Integers stay
// integers. BSON needs an object at the top level, and XML cannot carry
// free-form documents.
func ConvertJSON(content string, codec Codec) ([]byte, error) {
	if codec.ContentType() == "application/xml" {
		return nil, fmt.Errorf("%w: json cannot be converted to %s", ErrUnsupportedFormat, codec.ContentType())
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, newJSONError(content, 0, err)
	}
	if err := expectEOF(content, dec); err != nil {
		return nil, err
	}
	doc = normalizeJSONNumbers(doc)

	if codec.ContentType() == "application/bson" {
		if _, ok := doc.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: bson documents must be objects", ErrInvalidInput)
		}
	}

	out, err := codec.Marshal(doc)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return out, nil
}

// expectEOF rejects anything but whitespace after the first value.
func expectEOF(content string, dec *json.Decoder) error {
	offset := int(dec.InputOffset())
	_, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		err = errors.New("invalid character after top-level value")
	}
	offset += len(content[offset:]) - len(strings.TrimLeft(content[offset:], jsonSpace))
	return locateAt(content, offset, err)
}

func normalizeJSONNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeJSONNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeJSONNumbers(e)
		}
		return t
	default:
		return v
	}
}
