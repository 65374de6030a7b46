package pastemagic

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/tjfoc/gmsm/sm4"
)

// Encryption errors.
var (
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrCiphertextShort  = errors.New("ciphertext too short")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Encryptor handles encryption/decryption operations.
type Encryptor interface {
	// Encrypt encrypts plaintext and returns ciphertext.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext and returns plaintext.
	Decrypt(ciphertext []byte) ([]byte, error)
}

// aesGCM implements AES-GCM with a random nonce prepended to the output.
type aesGCM struct {
	gcm cipher.AEAD
}

// AES returns an AES-GCM encryptor.
// Key must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func AES(key []byte) (Encryptor, error) {
	if err := checkAESKey(key); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &aesGCM{gcm: gcm}, nil
}

func (e *aesGCM) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *aesGCM) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := e.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrCiphertextShort
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

func checkAESKey(key []byte) error {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return fmt.Errorf("%w: must be 16, 24, or 32 bytes, got %d", ErrInvalidKeySize, len(key))
	}
	return nil
}

// blockEncryptor runs a 128-bit block cipher in a classic mode of operation.
type blockEncryptor struct {
	block   cipher.Block
	mode    Mode
	padding Padding
	iv      []byte
}

// AESBlock returns an AES encryptor for ECB, CBC, CFB, OFB or CTR.
// The IV is zero-padded or truncated to 16 bytes and ignored by ECB.
func AESBlock(key, iv []byte, mode Mode, padding Padding) (Encryptor, error) {
	if err := checkAESKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return newBlockEncryptor(block, iv, mode, padding)
}

// SM4Block returns an SM4 encryptor for ECB, CBC, CFB, OFB or CTR.
// Key and IV are zero-padded or truncated to 16 bytes.
func SM4Block(key, iv []byte, mode Mode, padding Padding) (Encryptor, error) {
	block, err := sm4.NewCipher(fitLength(key, sm4.BlockSize))
	if err != nil {
		return nil, err
	}
	return newBlockEncryptor(block, iv, mode, padding)
}

func newBlockEncryptor(block cipher.Block, iv []byte, mode Mode, padding Padding) (Encryptor, error) {
	switch mode {
	case ModeECB, ModeCBC, ModeCFB, ModeOFB, ModeCTR:
	default:
		return nil, fmt.Errorf("%w: mode %q", ErrUnsupportedAlgorithm, mode)
	}
	if !isBlockPadding(padding) {
		return nil, fmt.Errorf("%w: padding %q", ErrUnsupportedAlgorithm, padding)
	}
	return &blockEncryptor{
		block:   block,
		mode:    mode,
		padding: padding,
		iv:      fitLength(iv, block.BlockSize()),
	}, nil
}

func (e *blockEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	bs := e.block.BlockSize()

	switch e.mode {
	case ModeECB, ModeCBC:
		padded, err := pad(plaintext, bs, e.padding)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(padded))
		if e.mode == ModeECB {
			for i := 0; i < len(padded); i += bs {
				e.block.Encrypt(out[i:i+bs], padded[i:i+bs])
			}
		} else {
			cipher.NewCBCEncrypter(e.block, e.iv).CryptBlocks(out, padded)
		}
		return out, nil
	default:
		out := make([]byte, len(plaintext))
		e.stream(true).XORKeyStream(out, plaintext)
		return out, nil
	}
}

func (e *blockEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	bs := e.block.BlockSize()

	switch e.mode {
	case ModeECB, ModeCBC:
		if len(ciphertext) == 0 {
			// Zero and no padding encrypt empty input to nothing.
			if e.padding == PaddingZero || e.padding == PaddingNone {
				return []byte{}, nil
			}
			return nil, ErrCiphertextShort
		}
		if len(ciphertext)%bs != 0 {
			return nil, fmt.Errorf("%w: length %d is not a multiple of the block size", ErrDecryptionFailed, len(ciphertext))
		}
		out := make([]byte, len(ciphertext))
		if e.mode == ModeECB {
			for i := 0; i < len(ciphertext); i += bs {
				e.block.Decrypt(out[i:i+bs], ciphertext[i:i+bs])
			}
		} else {
			cipher.NewCBCDecrypter(e.block, e.iv).CryptBlocks(out, ciphertext)
		}
		return unpad(out, bs, e.padding)
	default:
		out := make([]byte, len(ciphertext))
		e.stream(false).XORKeyStream(out, ciphertext)
		return out, nil
	}
}

//nolint:staticcheck // CFB and OFB are needed for interoperability with existing ciphertexts.
func (e *blockEncryptor) stream(encrypt bool) cipher.Stream {
	switch e.mode {
	case ModeCFB:
		if encrypt {
			return cipher.NewCFBEncrypter(e.block, e.iv)
		}
		return cipher.NewCFBDecrypter(e.block, e.iv)
	case ModeOFB:
		return cipher.NewOFB(e.block, e.iv)
	default:
		return cipher.NewCTR(e.block, e.iv)
	}
}

// fitLength zero-pads or truncates b to n bytes.
func fitLength(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}

// rsaEncryptor implements RSA with PKCS#1 v1.5 or OAEP (SHA-256) padding.
type rsaEncryptor struct {
	pub     *rsa.PublicKey
	priv    *rsa.PrivateKey
	padding Padding
}

// RSA returns an RSA encryptor.
// pub is required for encryption; priv is required for decryption.
// Either can be nil if only one operation is needed. Padding is
// PaddingPKCS1 (the default when empty) or PaddingOAEP.
func RSA(pub *rsa.PublicKey, priv *rsa.PrivateKey, padding Padding) (Encryptor, error) {
	switch padding {
	case "", PaddingPKCS1, PaddingPKCS5, PaddingPKCS7:
		padding = PaddingPKCS1
	case PaddingOAEP:
	default:
		return nil, fmt.Errorf("%w: rsa padding %q", ErrUnsupportedAlgorithm, padding)
	}
	if pub == nil && priv != nil {
		pub = &priv.PublicKey
	}
	return &rsaEncryptor{pub: pub, priv: priv, padding: padding}, nil
}

func (e *rsaEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if e.pub == nil {
		return nil, fmt.Errorf("%w: public key required for encryption", ErrMissingKey)
	}

	if e.padding == PaddingOAEP {
		return rsa.EncryptOAEP(sha256.New(), rand.Reader, e.pub, plaintext, nil)
	}
	return rsa.EncryptPKCS1v15(rand.Reader, e.pub, plaintext)
}

func (e *rsaEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if e.priv == nil {
		return nil, fmt.Errorf("%w: private key required for decryption", ErrMissingKey)
	}

	var (
		plaintext []byte
		err       error
	)
	if e.padding == PaddingOAEP {
		plaintext, err = rsa.DecryptOAEP(sha256.New(), rand.Reader, e.priv, ciphertext, nil)
	} else {
		plaintext, err = rsa.DecryptPKCS1v15(rand.Reader, e.priv, ciphertext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
