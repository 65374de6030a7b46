package testing

import (
	"context"
	"testing"

	"github.com/pastemagic/pastemagic"
)

func TestTestKey(t *testing.T) {
	key := TestKey(t)
	if len(key) != 32 {
		t.Errorf("TestKey() length = %d, want 32", len(key))
	}
	if len(TestIV(t)) != 16 {
		t.Errorf("TestIV() length = %d, want 16", len(TestIV(t)))
	}
}

func TestTestEncryptor(t *testing.T) {
	enc := TestEncryptor(t)
	if enc == nil {
		t.Fatal("TestEncryptor() should not return nil")
	}

	plaintext := []byte("test")
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}

	if string(decrypted) != string(plaintext) {
		t.Errorf("round-trip failed")
	}
}

func TestTestCipherConfig(t *testing.T) {
	for _, alg := range []string{"AES/CBC/PKCS5Padding", "SM4/ECB/PKCS7Padding"} {
		cfg := TestCipherConfig(t, alg)
		ct, err := pastemagic.Encrypt(context.Background(), "hello", cfg)
		if err != nil {
			t.Fatalf("%s Encrypt() error: %v", alg, err)
		}
		pt, err := pastemagic.Decrypt(context.Background(), ct, cfg)
		if err != nil {
			t.Fatalf("%s Decrypt() error: %v", alg, err)
		}
		if pt != "hello" {
			t.Errorf("%s round trip = %q", alg, pt)
		}
	}
}

func TestTestRSAKeyPair(t *testing.T) {
	a := TestRSAKeyPair(t)
	b := TestRSAKeyPair(t)
	if a != b {
		t.Error("TestRSAKeyPair() should be shared")
	}
	if _, err := pastemagic.ParseRSAPrivateKey([]byte(a.PrivateKey)); err != nil {
		t.Errorf("ParseRSAPrivateKey() error: %v", err)
	}
}

func TestKeyRecord_Clone(t *testing.T) {
	original := KeyRecord{
		ID:         "1",
		Algorithm:  "AES/CBC/PKCS5Padding",
		Key:        "0123456789abcdef",
		PrivateKey: "pem",
		Note:       "note",
	}
	if original.Clone() != original {
		t.Error("Clone() should copy all fields")
	}

	simple := SimpleRecord{ID: "1", Name: "n"}
	if simple.Clone() != simple {
		t.Error("Clone() should copy all fields")
	}
}
