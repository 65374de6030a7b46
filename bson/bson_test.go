package bson

import (
	"testing"

	"github.com/pastemagic/pastemagic"
)

func TestContentType(t *testing.T) {
	if got := New().ContentType(); got != "application/bson" {
		t.Errorf("ContentType() = %q, want %q", got, "application/bson")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	original := map[string]any{"host": "example.com", "port": int32(443)}

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored map[string]any
	if err := c.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if restored["host"] != "example.com" || restored["port"] != int32(443) {
		t.Errorf("round-trip failed: got %+v, want %+v", restored, original)
	}
}

func TestConvertJSON(t *testing.T) {
	data, err := pastemagic.ConvertJSON(`{"id": 7, "tags": ["a"]}`, New())
	if err != nil {
		t.Fatalf("ConvertJSON() error: %v", err)
	}

	var restored map[string]any
	if err := New().Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if restored["id"] != int64(7) {
		t.Errorf("id = %#v, want int64(7)", restored["id"])
	}
}

func TestConvertJSON_TopLevelArray(t *testing.T) {
	if _, err := pastemagic.ConvertJSON(`[1, 2]`, New()); err == nil {
		t.Error("ConvertJSON() should reject arrays")
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	var v struct{}
	if err := New().Unmarshal([]byte("invalid bson"), &v); err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}
