package keystore

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pastemagic/pastemagic"
)

// Defaults for new configurations.
const (
	DefaultAlgorithm = "AES/CBC/PKCS5Padding"
	DefaultRSABits   = 2048
)

// KeyConfig is a named cipher configuration. Key, IV and PrivateKey are
// sealed when stored and masked when listed.
type KeyConfig struct {
	ID             string                `json:"id" yaml:"id" xml:"id"`
	Name           string                `json:"name" yaml:"name" xml:"name"`
	Algorithm      string                `json:"algorithm" yaml:"algorithm" xml:"algorithm"`
	Key            string                `json:"key" yaml:"key" xml:"key" store.encrypt:"aes" load.decrypt:"aes" send.mask:"secret"`
	KeyEncoding    []pastemagic.Encoding `json:"keyEncoding" yaml:"keyEncoding" xml:"keyEncoding>encoding"`
	IV             string                `json:"iv" yaml:"iv" xml:"iv" store.encrypt:"aes" load.decrypt:"aes" send.mask:"secret"`
	IVEncoding     []pastemagic.Encoding `json:"ivEncoding" yaml:"ivEncoding" xml:"ivEncoding>encoding"`
	PublicKey      string                `json:"publicKey" yaml:"publicKey" xml:"publicKey"`
	PrivateKey     string                `json:"privateKey" yaml:"privateKey" xml:"privateKey" store.encrypt:"aes" load.decrypt:"aes" send.mask:"pem"`
	PlainEncoding  []pastemagic.Encoding `json:"plainEncoding" yaml:"plainEncoding" xml:"plainEncoding>encoding"`
	CipherEncoding []pastemagic.Encoding `json:"cipherEncoding" yaml:"cipherEncoding" xml:"cipherEncoding>encoding"`
	CreatedAt      time.Time             `json:"createdAt" yaml:"createdAt" xml:"createdAt"`
}

// Clone implements pastemagic.Cloner.
func (k KeyConfig) Clone() KeyConfig {
	c := k
	c.KeyEncoding = slices.Clone(k.KeyEncoding)
	c.IVEncoding = slices.Clone(k.IVEncoding)
	c.PlainEncoding = slices.Clone(k.PlainEncoding)
	c.CipherEncoding = slices.Clone(k.CipherEncoding)
	return c
}

// NewKeyConfig returns a configuration with the defaults: AES/CBC with
// PKCS5 padding, a hex key, a UTF-8 IV, UTF-8 plaintext and base64
// ciphertext.
func NewKeyConfig(id, name string, createdAt time.Time) KeyConfig {
	return KeyConfig{
		ID:             id,
		Name:           name,
		Algorithm:      DefaultAlgorithm,
		KeyEncoding:    []pastemagic.Encoding{pastemagic.EncodingHex},
		IVEncoding:     []pastemagic.Encoding{pastemagic.EncodingUTF8},
		PlainEncoding:  []pastemagic.Encoding{pastemagic.EncodingUTF8},
		CipherEncoding: []pastemagic.Encoding{pastemagic.EncodingBase64},
		CreatedAt:      createdAt,
	}
}

// IsRSA reports whether the configuration uses RSA.
func (k KeyConfig) IsRSA() bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(k.Algorithm)), string(pastemagic.CipherRSA))
}

// Validate checks the algorithm string and every encoding chain.
func (k KeyConfig) Validate() error {
	if strings.TrimSpace(k.Name) == "" {
		return ErrNameRequired
	}
	if _, err := pastemagic.ParseAlgorithm(k.Algorithm); err != nil {
		return err
	}
	chains := map[string][]pastemagic.Encoding{
		"key":    k.KeyEncoding,
		"iv":     k.IVEncoding,
		"plain":  k.PlainEncoding,
		"cipher": k.CipherEncoding,
	}
	for name, chain := range chains {
		for _, e := range chain {
			if _, err := pastemagic.ParseEncoding(string(e)); err != nil {
				return fmt.Errorf("%s encoding: %w", name, err)
			}
		}
	}
	return nil
}

// CipherConfig converts the configuration for Encrypt and Decrypt. PEM keys
// are read as UTF-8 text.
func (k KeyConfig) CipherConfig() pastemagic.CipherConfig {
	pem := []pastemagic.Encoding{pastemagic.EncodingUTF8}
	return pastemagic.CipherConfig{
		Algorithm:      k.Algorithm,
		Key:            pastemagic.Material{Value: k.Key, Encoding: k.KeyEncoding},
		IV:             pastemagic.Material{Value: k.IV, Encoding: k.IVEncoding},
		PublicKey:      pastemagic.Material{Value: k.PublicKey, Encoding: pem},
		PrivateKey:     pastemagic.Material{Value: k.PrivateKey, Encoding: pem},
		PlainEncoding:  k.PlainEncoding,
		CipherEncoding: k.CipherEncoding,
	}
}
