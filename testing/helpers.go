// Package testing provides test utilities for pastemagic.
package testing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	stdtesting "testing"
	"time"

	"github.com/pastemagic/pastemagic"
)

// TestKey returns a valid 32-byte AES key for testing.
func TestKey(tb stdtesting.TB) []byte {
	tb.Helper()
	return []byte("32-byte-key-for-aes-256-encrypt!")
}

// TestIV returns a 16-byte IV for testing.
func TestIV(tb stdtesting.TB) []byte {
	tb.Helper()
	return []byte("abcdef1234567890")
}

// TestEncryptor returns an AES-GCM encryptor configured for testing.
func TestEncryptor(tb stdtesting.TB) pastemagic.Encryptor {
	tb.Helper()
	enc, err := pastemagic.AES(TestKey(tb))
	if err != nil {
		tb.Fatalf("AES() error: %v", err)
	}
	return enc
}

// TestCipherConfig returns a symmetric cipher config for algorithm with a
// UTF8 key and IV. SM4 configs get the first 16 bytes of TestKey.
func TestCipherConfig(tb stdtesting.TB, algorithm string) pastemagic.CipherConfig {
	tb.Helper()
	key := string(TestKey(tb))
	alg, err := pastemagic.ParseAlgorithm(algorithm)
	if err != nil {
		tb.Fatalf("ParseAlgorithm(%q) error: %v", algorithm, err)
	}
	if alg.Main == pastemagic.CipherSM4 {
		key = key[:16]
	}
	return pastemagic.CipherConfig{
		Algorithm: algorithm,
		Key:       pastemagic.Material{Value: key, Encoding: []pastemagic.Encoding{pastemagic.EncodingUTF8}},
		IV:        pastemagic.Material{Value: string(TestIV(tb)), Encoding: []pastemagic.Encoding{pastemagic.EncodingUTF8}},
	}
}

var (
	pairOnce sync.Once
	pair     *pastemagic.RSAKeyPair
	pairErr  error
)

// TestRSAKeyPair returns a 2048-bit PEM key pair shared by every caller.
func TestRSAKeyPair(tb stdtesting.TB) *pastemagic.RSAKeyPair {
	tb.Helper()
	pairOnce.Do(func() {
		var priv *rsa.PrivateKey
		if priv, pairErr = rsa.GenerateKey(rand.Reader, 2048); pairErr != nil {
			return
		}
		var pubDER, privDER []byte
		if pubDER, pairErr = x509.MarshalPKIXPublicKey(&priv.PublicKey); pairErr != nil {
			return
		}
		if privDER, pairErr = x509.MarshalPKCS8PrivateKey(priv); pairErr != nil {
			return
		}
		pair = &pastemagic.RSAKeyPair{
			PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
			PrivateKey: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
		}
	})
	if pairErr != nil {
		tb.Fatalf("generate rsa key pair: %v", pairErr)
	}
	return pair
}

// FixedTime returns the reference instant used by time and cron tests.
func FixedTime() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

// SimpleRecord is a test type with no transformation tags.
type SimpleRecord struct {
	ID   string `json:"id" yaml:"id" xml:"id" bson:"id"`
	Name string `json:"name" yaml:"name" xml:"name" bson:"name"`
}

// Clone implements Cloner[SimpleRecord].
func (r SimpleRecord) Clone() SimpleRecord { return r }

// KeyRecord is a test type shaped like a saved key config: key material is
// sealed at rest and masked for display.
type KeyRecord struct {
	ID         string `json:"id" yaml:"id" xml:"id" bson:"id"`
	Algorithm  string `json:"algorithm" yaml:"algorithm" xml:"algorithm" bson:"algorithm"`
	Key        string `json:"key" yaml:"key" xml:"key" bson:"key" store.encrypt:"aes" load.decrypt:"aes" send.mask:"secret"`
	PrivateKey string `json:"privateKey" yaml:"privateKey" xml:"privateKey" bson:"privateKey" store.encrypt:"aes" load.decrypt:"aes" send.mask:"pem"`
	Note       string `json:"note" yaml:"note" xml:"note" bson:"note" send.redact:"[REDACTED]"`
}

// Clone implements Cloner[KeyRecord].
func (r KeyRecord) Clone() KeyRecord {
	return KeyRecord{
		ID:         r.ID,
		Algorithm:  r.Algorithm,
		Key:        r.Key,
		PrivateKey: r.PrivateKey,
		Note:       r.Note,
	}
}
