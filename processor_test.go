package pastemagic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

// testCodec is a simple JSON codec for testing.
type testCodec struct{}

func (c *testCodec) ContentType() string { return "application/json" }

func (c *testCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *testCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// PlainRecord has no transformation tags.
type PlainRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r PlainRecord) Clone() PlainRecord { return r }

// SealedRecord is stored with its secrets sealed and shown masked.
type SealedRecord struct {
	ID     string `json:"id"`
	Key    string `json:"key" store.encrypt:"aes" load.decrypt:"aes" send.mask:"secret"`
	Raw    []byte `json:"raw" store.encrypt:"aes" load.decrypt:"aes" send.redact:"[hidden]"`
	Public string `json:"public" send.mask:"pem"`
	Host   string `json:"host" send.mask:"ip"`
}

func (r SealedRecord) Clone() SealedRecord {
	c := r
	if r.Raw != nil {
		c.Raw = append([]byte(nil), r.Raw...)
	}
	return c
}

// sealedMaterial holds a nested secret.
type sealedMaterial struct {
	Value string `json:"value" store.encrypt:"aes" load.decrypt:"aes" send.mask:"secret"`
}

// NestedRecord reaches its secret through a pointer.
type NestedRecord struct {
	Name   string          `json:"name"`
	Secret *sealedMaterial `json:"secret"`
	Inline sealedMaterial  `json:"inline"`
}

func (r NestedRecord) Clone() NestedRecord {
	c := r
	if r.Secret != nil {
		s := *r.Secret
		c.Secret = &s
	}
	return c
}

// BadTagRecord names an unknown encryptor.
type BadTagRecord struct {
	Key string `json:"key" store.encrypt:"des"`
}

func (r BadTagRecord) Clone() BadTagRecord { return r }

// BadMaskRecord names an unknown mask type.
type BadMaskRecord struct {
	Key string `json:"key" send.mask:"ssn"`
}

func (r BadMaskRecord) Clone() BadMaskRecord { return r }

func newTestEncryptor(t *testing.T) Encryptor {
	t.Helper()
	enc, err := AES([]byte("32-byte-key-for-aes-256-encrypt!"))
	if err != nil {
		t.Fatalf("AES() error: %v", err)
	}
	return enc
}

func TestNewProcessor(t *testing.T) {
	proc, err := NewProcessor[PlainRecord](&testCodec{})
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	if proc == nil {
		t.Error("NewProcessor() returned nil")
	}
}

func TestNewProcessor_InvalidTags(t *testing.T) {
	if _, err := NewProcessor[BadTagRecord](&testCodec{}); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("expected ErrInvalidTag, got %v", err)
	}
	if _, err := NewProcessor[BadMaskRecord](&testCodec{}); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("expected ErrInvalidTag, got %v", err)
	}
}

func TestProcessor_Validate_MissingEncryptor(t *testing.T) {
	proc, err := NewProcessor[SealedRecord](&testCodec{})
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}

	err = proc.Validate()
	if !errors.Is(err, ErrMissingEncryptor) {
		t.Fatalf("expected ErrMissingEncryptor, got %v", err)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Capability != "aes" {
		t.Errorf("expected ConfigError for aes, got %v", err)
	}

	if _, err := proc.Store(context.Background(), &SealedRecord{}); !errors.Is(err, ErrMissingEncryptor) {
		t.Errorf("Store: expected ErrMissingEncryptor, got %v", err)
	}
}

func TestProcessor_StoreLoadRoundTrip(t *testing.T) {
	proc, err := NewProcessor[SealedRecord](&testCodec{})
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))

	orig := &SealedRecord{ID: "k1", Key: "0123456789abcdef", Raw: []byte{1, 2, 3}}
	data, err := proc.Store(context.Background(), orig)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	if strings.Contains(string(data), "0123456789abcdef") {
		t.Error("stored data contains the plaintext key")
	}
	if orig.Key != "0123456789abcdef" {
		t.Error("Store() mutated the caller's value")
	}

	var stored SealedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(stored.Key); err != nil {
		t.Errorf("sealed string field should be base64: %v", err)
	}

	loaded, err := proc.Load(context.Background(), data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Key != orig.Key || string(loaded.Raw) != string(orig.Raw) || loaded.ID != "k1" {
		t.Errorf("Load() = %+v, want %+v", loaded, orig)
	}
}

func TestProcessor_StoreSkipsEmptyFields(t *testing.T) {
	proc, _ := NewProcessor[SealedRecord](&testCodec{})
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))

	data, err := proc.Store(context.Background(), &SealedRecord{ID: "empty"})
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if !strings.Contains(string(data), `"key":""`) {
		t.Errorf("empty field should stay empty, got %s", data)
	}
}

func TestProcessor_Send(t *testing.T) {
	proc, _ := NewProcessor[SealedRecord](&testCodec{})
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))

	rec := &SealedRecord{
		ID:     "k1",
		Key:    "0123456789abcdef0123",
		Raw:    []byte("raw"),
		Public: "-----BEGIN PUBLIC KEY-----\nMIIB\n-----END PUBLIC KEY-----",
		Host:   "192.168.1.100",
	}

	masked, err := proc.Mask(rec)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if masked.Key != "0123************0123" {
		t.Errorf("Key = %q", masked.Key)
	}
	if string(masked.Raw) != "[hidden]" {
		t.Errorf("Raw = %q", masked.Raw)
	}
	if masked.Public != "-----BEGIN PUBLIC KEY-----\n****\n-----END PUBLIC KEY-----" {
		t.Errorf("Public = %q", masked.Public)
	}
	if masked.Host != "192.168.xxx.xxx" {
		t.Errorf("Host = %q", masked.Host)
	}
	if rec.Key != "0123456789abcdef0123" {
		t.Error("Mask() mutated the caller's value")
	}

	data, err := proc.Send(context.Background(), rec)
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if strings.Contains(string(data), "456789abcdef") {
		t.Errorf("sent data leaks the key: %s", data)
	}
}

func TestProcessor_SetMaskerOverrides(t *testing.T) {
	proc, _ := NewProcessor[SealedRecord](&testCodec{})
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))
	proc.SetMasker(MaskSecret, maskFunc(func(string) string { return "<secret>" }))

	masked, err := proc.Mask(&SealedRecord{Key: "abc"})
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if masked.Key != "<secret>" {
		t.Errorf("Key = %q", masked.Key)
	}
}

type maskFunc func(string) string

func (f maskFunc) Mask(v string) string { return f(v) }

func TestProcessor_NestedFields(t *testing.T) {
	proc, err := NewProcessor[NestedRecord](&testCodec{})
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))

	rec := &NestedRecord{
		Name:   "n",
		Secret: &sealedMaterial{Value: "pointer secret value"},
		Inline: sealedMaterial{Value: "inline secret value"},
	}
	data, err := proc.Store(context.Background(), rec)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if strings.Contains(string(data), "secret value") {
		t.Errorf("nested secrets were not sealed: %s", data)
	}
	if rec.Secret.Value != "pointer secret value" {
		t.Error("Store() mutated the caller's nested value")
	}

	loaded, err := proc.Load(context.Background(), data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Secret.Value != "pointer secret value" || loaded.Inline.Value != "inline secret value" {
		t.Errorf("Load() = %+v / %+v", loaded.Secret, loaded.Inline)
	}
}

func TestProcessor_NilNestedPointer(t *testing.T) {
	proc, _ := NewProcessor[NestedRecord](&testCodec{})
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))

	if _, err := proc.Store(context.Background(), &NestedRecord{Name: "n"}); err != nil {
		t.Fatalf("Store() error: %v", err)
	}
}

func TestProcessor_LoadErrors(t *testing.T) {
	proc, _ := NewProcessor[SealedRecord](&testCodec{})
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))

	if _, err := proc.Load(context.Background(), []byte("{")); !errors.Is(err, ErrUnmarshal) {
		t.Errorf("expected ErrUnmarshal, got %v", err)
	}
	if _, err := proc.Load(context.Background(), []byte(`{"key":"not base64!"}`)); err == nil {
		t.Error("expected an error for a key that is not base64")
	}
}

func TestProcessor_StoreNil(t *testing.T) {
	proc, _ := NewProcessor[PlainRecord](&testCodec{})
	data, err := proc.Store(context.Background(), nil)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("Store(nil) = %s", data)
	}
}

func TestProcessor_Concurrent(t *testing.T) {
	proc, _ := NewProcessor[SealedRecord](&testCodec{})
	proc.SetEncryptor(EncryptAES, newTestEncryptor(t))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := proc.Store(context.Background(), &SealedRecord{Key: "concurrent"})
			if err != nil {
				errs <- err
				return
			}
			got, err := proc.Load(context.Background(), data)
			if err != nil {
				errs <- err
				return
			}
			if got.Key != "concurrent" {
				errs <- errors.New("round trip mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
