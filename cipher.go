package pastemagic

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Material is a piece of key material written as text through an encoding
// chain, e.g. a hex key or a PEM public key.
type Material struct {
	Value    string     `json:"value" yaml:"value" xml:"value"`
	Encoding []Encoding `json:"encoding" yaml:"encoding" xml:"encoding"`
}

// Bytes decodes the material through its encoding chain.
func (m Material) Bytes() ([]byte, error) {
	return DecodeChain(m.Value, m.Encoding)
}

// IsZero reports whether no value was supplied.
func (m Material) IsZero() bool {
	return strings.TrimSpace(m.Value) == ""
}

// CipherConfig describes one cipher setup.
//
// Algorithm is "MAIN[/MODE[/PADDING]]", for example "AES/CBC/PKCS5Padding",
// "SM4/ECB/NoPadding" or "RSA/ECB/OAEPPadding". Symmetric ciphers read Key
// and IV; RSA reads PublicKey to encrypt and PrivateKey to decrypt.
type CipherConfig struct {
	Algorithm      string     `json:"algorithm" yaml:"algorithm" xml:"algorithm"`
	Key            Material   `json:"key" yaml:"key" xml:"key"`
	IV             Material   `json:"iv" yaml:"iv" xml:"iv"`
	PublicKey      Material   `json:"publicKey" yaml:"publicKey" xml:"publicKey"`
	PrivateKey     Material   `json:"privateKey" yaml:"privateKey" xml:"privateKey"`
	PlainEncoding  []Encoding `json:"plainEncoding" yaml:"plainEncoding" xml:"plainEncoding"`
	CipherEncoding []Encoding `json:"cipherEncoding" yaml:"cipherEncoding" xml:"cipherEncoding"`
}

// Algorithm is a parsed algorithm string.
type Algorithm struct {
	Main    CipherAlgo
	Mode    Mode
	Padding Padding
}

func (a Algorithm) String() string {
	return fmt.Sprintf("%s/%s/%s", a.Main, a.Mode, a.Padding)
}

// ParseAlgorithm splits an algorithm string. Mode defaults to CBC and
// padding to PKCS5Padding. Names are case-insensitive.
func ParseAlgorithm(s string) (Algorithm, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(s)), "/")
	alg := Algorithm{
		Main:    CipherAlgo(parts[0]),
		Mode:    ModeCBC,
		Padding: PaddingPKCS5,
	}
	if len(parts) > 1 && parts[1] != "" {
		alg.Mode = Mode(parts[1])
	}
	if len(parts) > 2 && parts[2] != "" {
		alg.Padding = Padding(parts[2])
	}
	if len(parts) > 3 {
		return Algorithm{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}

	switch alg.Main {
	case CipherAES, CipherSM4:
		if !IsValidMode(alg.Mode) {
			return Algorithm{}, fmt.Errorf("%w: mode %q", ErrUnsupportedAlgorithm, alg.Mode)
		}
		if alg.Main == CipherSM4 && alg.Mode == ModeGCM {
			return Algorithm{}, fmt.Errorf("%w: SM4 does not support GCM", ErrUnsupportedAlgorithm)
		}
		if alg.Mode != ModeGCM && !isBlockPadding(alg.Padding) {
			return Algorithm{}, fmt.Errorf("%w: padding %q", ErrUnsupportedAlgorithm, alg.Padding)
		}
	case CipherRSA:
		if alg.Padding == PaddingPKCS5 || alg.Padding == PaddingPKCS7 {
			alg.Padding = PaddingPKCS1
		}
		if alg.Padding != PaddingPKCS1 && alg.Padding != PaddingOAEP {
			return Algorithm{}, fmt.Errorf("%w: rsa padding %q", ErrUnsupportedAlgorithm, alg.Padding)
		}
	default:
		return Algorithm{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg.Main)
	}

	return alg, nil
}

// Encryptor builds the encryptor described by the config. RSA encryptors are
// built with whichever keys are present.
func (c CipherConfig) Encryptor() (Encryptor, error) {
	alg, err := ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}

	if alg.Main == CipherRSA {
		return c.rsaEncryptor(alg)
	}

	if c.Key.IsZero() {
		return nil, fmt.Errorf("%w: %s needs a key", ErrMissingKey, alg.Main)
	}
	key, err := c.Key.Bytes()
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	var iv []byte
	if !c.IV.IsZero() {
		if iv, err = c.IV.Bytes(); err != nil {
			return nil, fmt.Errorf("iv: %w", err)
		}
	}

	switch {
	case alg.Main == CipherAES && alg.Mode == ModeGCM:
		return AES(key)
	case alg.Main == CipherAES:
		return AESBlock(key, iv, alg.Mode, alg.Padding)
	default:
		return SM4Block(key, iv, alg.Mode, alg.Padding)
	}
}

func (c CipherConfig) rsaEncryptor(alg Algorithm) (Encryptor, error) {
	var (
		enc Encryptor
		err error
	)
	switch {
	case !c.PrivateKey.IsZero():
		raw, derr := c.PrivateKey.Bytes()
		if derr != nil {
			return nil, fmt.Errorf("private key: %w", derr)
		}
		priv, perr := ParseRSAPrivateKey(raw)
		if perr != nil {
			return nil, perr
		}
		enc, err = RSA(nil, priv, alg.Padding)
		if err == nil && !c.PublicKey.IsZero() {
			// An explicit public key wins for encryption.
			pub, perr := c.publicKey()
			if perr != nil {
				return nil, perr
			}
			enc, err = RSA(pub, priv, alg.Padding)
		}
	case !c.PublicKey.IsZero():
		pub, perr := c.publicKey()
		if perr != nil {
			return nil, perr
		}
		enc, err = RSA(pub, nil, alg.Padding)
	default:
		return nil, fmt.Errorf("%w: RSA needs a public or private key", ErrMissingKey)
	}
	return enc, err
}

func (c CipherConfig) publicKey() (*rsa.PublicKey, error) {
	raw, err := c.PublicKey.Bytes()
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	return ParseRSAPublicKey(raw)
}

func (c CipherConfig) plainChain() []Encoding {
	if len(c.PlainEncoding) == 0 {
		return []Encoding{EncodingUTF8}
	}
	return c.PlainEncoding
}

func (c CipherConfig) cipherChain() []Encoding {
	if len(c.CipherEncoding) == 0 {
		return []Encoding{EncodingBase64}
	}
	return c.CipherEncoding
}

// Encrypt encrypts plaintext and writes the ciphertext through the cipher
// encoding chain.
//
// When the plain encoding chain does not contain UTF8 the plaintext is first
// decoded through it, so "48656c6c6f" with plain encoding HEX encrypts the
// five bytes "Hello".
func Encrypt(ctx context.Context, plaintext string, cfg CipherConfig) (string, error) {
	start := time.Now()
	emitCipherStart(ctx, SignalEncryptStart, cfg.Algorithm)

	var (
		out    string
		retErr error
	)
	defer func() {
		emitCipherComplete(ctx, SignalEncryptComplete, cfg.Algorithm, len(out), time.Since(start), retErr)
	}()

	out, retErr = encrypt(plaintext, cfg)
	if retErr != nil {
		retErr = newCipherError(ErrEncrypt, cfg.Algorithm, retErr)
		return "", retErr
	}
	return out, nil
}

func encrypt(plaintext string, cfg CipherConfig) (string, error) {
	var data []byte
	if HasEncoding(cfg.plainChain(), EncodingUTF8) {
		data = []byte(plaintext)
	} else {
		var err error
		if data, err = DecodeChain(plaintext, cfg.plainChain()); err != nil {
			return "", fmt.Errorf("plaintext: %w", err)
		}
	}

	enc, err := cfg.Encryptor()
	if err != nil {
		return "", err
	}

	ct, err := enc.Encrypt(data)
	if err != nil {
		return "", err
	}

	return EncodeChain(ct, cfg.cipherChain())
}

// Decrypt reads ciphertext through the cipher encoding chain and decrypts
// it. With a UTF8 plain encoding the result must be valid UTF-8, otherwise
// the bytes are written back through the plain encoding chain.
func Decrypt(ctx context.Context, ciphertext string, cfg CipherConfig) (string, error) {
	start := time.Now()
	emitCipherStart(ctx, SignalDecryptStart, cfg.Algorithm)

	var (
		out    string
		retErr error
	)
	defer func() {
		emitCipherComplete(ctx, SignalDecryptComplete, cfg.Algorithm, len(out), time.Since(start), retErr)
	}()

	out, retErr = decrypt(ciphertext, cfg)
	if retErr != nil {
		retErr = newCipherError(ErrDecrypt, cfg.Algorithm, retErr)
		return "", retErr
	}
	return out, nil
}

func decrypt(ciphertext string, cfg CipherConfig) (string, error) {
	ct, err := DecodeChain(strings.TrimSpace(ciphertext), cfg.cipherChain())
	if err != nil {
		return "", fmt.Errorf("ciphertext: %w", err)
	}

	enc, err := cfg.Encryptor()
	if err != nil {
		return "", err
	}

	pt, err := enc.Decrypt(ct)
	if err != nil {
		return "", err
	}

	if HasEncoding(cfg.plainChain(), EncodingUTF8) {
		if !utf8.Valid(pt) {
			return "", ErrMalformedPlaintext
		}
		return string(pt), nil
	}
	return EncodeChain(pt, cfg.plainChain())
}
