package pastemagic

import (
	"errors"
	"strings"
	"testing"
)

// labeledCodec is a JSON codec reporting another content type.
type labeledCodec struct {
	testCodec
	contentType string
}

func (c *labeledCodec) ContentType() string { return c.contentType }

func TestIsJSONDocument(t *testing.T) {
	if !IsJSONDocument("  [1]") || !IsJSONDocument(`{"a":`) {
		t.Error("objects and arrays are documents, even broken ones")
	}
	if IsJSONDocument("true") || IsJSONDocument("42") {
		t.Error("bare scalars are not documents")
	}
}

func TestFormatJSON(t *testing.T) {
	got, err := FormatJSON(`{"b":1,"a":[1,2]}`)
	if err != nil {
		t.Fatalf("FormatJSON() error: %v", err)
	}
	want := "{\n    \"b\": 1,\n    \"a\": [\n        1,\n        2\n    ]\n}"
	if got != want {
		t.Errorf("FormatJSON() = %q, want %q", got, want)
	}
}

func TestMinifyJSON(t *testing.T) {
	got, err := MinifyJSON("{\n  \"a\": [1, 2],\n  \"b\": \"x y\"\n}\n")
	if err != nil {
		t.Fatalf("MinifyJSON() error: %v", err)
	}
	if got != `{"a":[1,2],"b":"x y"}` {
		t.Errorf("MinifyJSON() = %q", got)
	}
}

func TestFormatJSON_InvalidIsLocated(t *testing.T) {
	_, err := FormatJSON(`{"a":1,}`)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var je *JSONError
	if !errors.As(err, &je) {
		t.Fatalf("expected *JSONError, got %T", err)
	}
	if je.Position != 7 || je.Context.Char != "}" {
		t.Errorf("Position/Char = %d/%q, want 7/\"}\"", je.Position, je.Context.Char)
	}
}

func TestFormatJSON_ErrorLocatedInUntrimmedText(t *testing.T) {
	content := "\n\n   {\"a\":1,}"

	_, err := FormatJSON(content)
	var je *JSONError
	if !errors.As(err, &je) {
		t.Fatalf("expected *JSONError, got %v", err)
	}
	if je.Line != 3 || je.Column != 11 || je.Context.Char != "}" {
		t.Errorf("Line/Column/Char = %d/%d/%q, want 3/11/\"}\"", je.Line, je.Column, je.Context.Char)
	}

	located := LocateJSONError(content)
	if located == nil || located.Position != je.Position {
		t.Errorf("LocateJSONError() = %+v, want position %d", located, je.Position)
	}

	if _, err := MinifyJSON(content); !errors.As(err, &je) || je.Line != 3 {
		t.Errorf("MinifyJSON() error = %v, want line 3", err)
	}
}

func TestLocateJSONError(t *testing.T) {
	if LocateJSONError(`{"ok":true}`) != nil {
		t.Error("valid JSON should not report an error")
	}

	je := LocateJSONError(`{"a":1,}`)
	if je == nil {
		t.Fatal("LocateJSONError() = nil")
	}
	if je.Line != 1 || je.Column != 8 {
		t.Errorf("Line/Column = %d/%d, want 1/8", je.Line, je.Column)
	}
	if je.Context.Before != ":1," || je.Context.After != "" {
		t.Errorf("Context = %+v", je.Context)
	}
	if je.RawMessage == "" || !strings.Contains(je.Error(), "line 1, column 8") {
		t.Errorf("Error() = %q", je.Error())
	}
}

func TestLocateJSONError_SecondLine(t *testing.T) {
	je := LocateJSONError("{\n  \"a\": tru\n}")
	if je == nil {
		t.Fatal("LocateJSONError() = nil")
	}
	if je.Line != 2 {
		t.Errorf("Line = %d, want 2", je.Line)
	}
}

func TestLocateJSONError_Truncated(t *testing.T) {
	je := LocateJSONError(`{"a":`)
	if je == nil {
		t.Fatal("LocateJSONError() = nil")
	}
	if je.Position < 0 || je.Position >= len(`{"a":`) {
		t.Errorf("Position = %d out of range", je.Position)
	}
}

func TestLocateJSONError_MultibyteText(t *testing.T) {
	je := LocateJSONError(`{"名":1,}`)
	if je == nil {
		t.Fatal("LocateJSONError() = nil")
	}
	if je.Position != 7 || je.Context.Char != "}" {
		t.Errorf("Position/Char = %d/%q, positions count characters not bytes", je.Position, je.Context.Char)
	}
}

func TestConvertJSON_KeepsIntegers(t *testing.T) {
	out, err := ConvertJSON(`{"id":9007199254740993,"ratio":0.5}`, &testCodec{})
	if err != nil {
		t.Fatalf("ConvertJSON() error: %v", err)
	}
	if string(out) != `{"id":9007199254740993,"ratio":0.5}` {
		t.Errorf("ConvertJSON() = %s", out)
	}
}

func TestConvertJSON_BSONNeedsObject(t *testing.T) {
	codec := &labeledCodec{contentType: "application/bson"}
	if _, err := ConvertJSON(`[1,2]`, codec); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := ConvertJSON(`{"a":1}`, codec); err != nil {
		t.Errorf("ConvertJSON() error: %v", err)
	}
}

func TestConvertJSON_XMLUnsupported(t *testing.T) {
	codec := &labeledCodec{contentType: "application/xml"}
	if _, err := ConvertJSON(`{"a":1}`, codec); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestConvertJSON_TrailingData(t *testing.T) {
	for _, in := range []string{`{"a":1} garbage`, `{"a":1} {"b":2}`, "[1]\n]"} {
		_, err := ConvertJSON(in, &testCodec{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ConvertJSON(%q): expected ErrInvalidInput, got %v", in, err)
		}
	}

	_, err := ConvertJSON(`{"a":1} garbage`, &testCodec{})
	var je *JSONError
	if !errors.As(err, &je) || je.Position != 8 || je.Context.Char != "g" {
		t.Errorf("expected error at position 8, got %v", err)
	}

	if _, err := ConvertJSON("{\"a\":1}\n  ", &testCodec{}); err != nil {
		t.Errorf("trailing whitespace: ConvertJSON() error: %v", err)
	}
}

func TestConvertJSON_Invalid(t *testing.T) {
	var je *JSONError
	if _, err := ConvertJSON(`{"a":}`, &testCodec{}); !errors.As(err, &je) {
		t.Errorf("expected *JSONError, got %v", err)
	}
}
