package pastemagic

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
)

// DefaultRSABits is the key size used when generating key pairs.
const DefaultRSABits = 2048

// ParseRSAPublicKey reads a public key from PEM, bare base64 DER or raw DER.
// PKIX and PKCS#1 encodings are accepted. A private key is accepted too and
// yields its public half.
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	der, err := keyDER(data)
	if err != nil {
		return nil, err
	}

	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA public key (%T)", ErrInvalidKey, pub)
		}
		return rsaPub, nil
	}
	if pub, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return pub, nil
	}
	if priv, err := parseRSAPrivateDER(der); err == nil {
		return &priv.PublicKey, nil
	}

	return nil, fmt.Errorf("%w: unrecognized public key encoding", ErrInvalidKey)
}

// ParseRSAPrivateKey reads a private key from PEM, bare base64 DER or raw
// DER. PKCS#8 and PKCS#1 encodings are accepted.
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	der, err := keyDER(data)
	if err != nil {
		return nil, err
	}
	return parseRSAPrivateDER(der)
}

func parseRSAPrivateDER(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA private key (%T)", ErrInvalidKey, key)
		}
		return rsaKey, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unrecognized private key encoding", ErrInvalidKey)
}

// keyDER extracts DER bytes from PEM text, bare base64 text, or DER itself.
func keyDER(data []byte) ([]byte, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrMissingKey
	}

	if block, _ := pem.Decode([]byte(text)); block != nil {
		return block.Bytes, nil
	}

	compact := strings.Join(strings.Fields(text), "")
	if der, err := base64.StdEncoding.DecodeString(compact); err == nil {
		return der, nil
	}

	// 0x30 opens an ASN.1 SEQUENCE.
	if len(data) > 0 && data[0] == 0x30 {
		return data, nil
	}

	return nil, fmt.Errorf("%w: expected PEM or base64 DER", ErrInvalidKey)
}

// RSAKeyPair holds a generated key pair as PEM text.
type RSAKeyPair struct {
	PublicKey  string `json:"publicKey" yaml:"publicKey" xml:"publicKey"`
	PrivateKey string `json:"privateKey" yaml:"privateKey" xml:"privateKey"`
}

// GenerateRSAKeyPair creates a key pair with a PKIX public key and a PKCS#8
// private key. bits <= 0 selects DefaultRSABits.
func GenerateRSAKeyPair(bits int) (*RSAKeyPair, error) {
	if bits <= 0 {
		bits = DefaultRSABits
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}

	return &RSAKeyPair{
		PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		PrivateKey: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
	}, nil
}
