package pastemagic

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnsupportedEncoding indicates an encoding chain names an unknown encoding.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrUnsupportedFormat indicates an unknown text format was requested.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnsupportedAlgorithm indicates an unknown cipher, mode, padding or hash.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrMissingKey indicates a cipher was invoked without the key it needs.
	ErrMissingKey = errors.New("missing key")

	// ErrInvalidKey indicates key material that cannot be parsed.
	ErrInvalidKey = errors.New("invalid key")

	// ErrMalformedPlaintext indicates decrypted bytes that are not valid UTF-8.
	ErrMalformedPlaintext = errors.New("malformed utf-8 plaintext")

	// ErrEncode indicates a text format failed to encode its input.
	ErrEncode = errors.New("encode failed")

	// ErrDecode indicates a text format failed to decode its input.
	ErrDecode = errors.New("decode failed")

	// ErrEncrypt indicates encryption failed.
	ErrEncrypt = errors.New("encrypt failed")

	// ErrDecrypt indicates decryption failed.
	ErrDecrypt = errors.New("decrypt failed")

	// ErrInvalidInput indicates content that does not fit the requested tool.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingEncryptor indicates a sealed field has no registered encryptor.
	ErrMissingEncryptor = errors.New("missing encryptor")

	// ErrMissingMasker indicates a masked field has no registered masker.
	ErrMissingMasker = errors.New("missing masker")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// FormatError represents a text format encode/decode failure.
type FormatError struct {
	Err    error      // Underlying sentinel error (ErrEncode, ErrDecode)
	Format TextFormat // Format that failed
	Cause  error      // Original error from the conversion
}

func (e *FormatError) Error() string {
	op := "encode"
	if errors.Is(e.Err, ErrDecode) {
		op = "decode"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Format, op, e.Cause)
	}
	return fmt.Sprintf("%s %s failed", e.Format, op)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// CipherError represents a failed encrypt or decrypt operation.
// Both the sentinel (ErrEncrypt, ErrDecrypt) and the cause are reachable
// through errors.Is.
type CipherError struct {
	Err       error  // Underlying sentinel error (ErrEncrypt, ErrDecrypt)
	Algorithm string // Algorithm string as configured (e.g. "AES/CBC/PKCS5Padding")
	Cause     error  // Original error
}

func (e *CipherError) Error() string {
	op := "encrypt"
	if errors.Is(e.Err, ErrDecrypt) {
		op = "decrypt"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s with %s: %v", op, e.Algorithm, e.Cause)
	}
	return fmt.Sprintf("%s with %s failed", op, e.Algorithm)
}

func (e *CipherError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// ConfigError represents a processor configuration error.
// It wraps a sentinel error with additional context about the field and capability.
type ConfigError struct {
	Err        error  // Underlying sentinel error (ErrMissingEncryptor, etc.)
	Field      string // Field name that triggered the error
	Capability string // Algorithm or mask type that was missing/invalid
}

func (e *ConfigError) Error() string {
	if e.Field != "" && e.Capability != "" {
		return fmt.Sprintf("%s for %q (field %s)", e.Err.Error(), e.Capability, e.Field)
	}
	if e.Capability != "" {
		return fmt.Sprintf("%s for %q", e.Err.Error(), e.Capability)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func newFormatError(sentinel error, format TextFormat, cause error) error {
	return &FormatError{Err: sentinel, Format: format, Cause: cause}
}

func newCipherError(sentinel error, algorithm string, cause error) error {
	return &CipherError{Err: sentinel, Algorithm: algorithm, Cause: cause}
}

func newConfigError(sentinel error, capability, field string) error {
	return &ConfigError{Err: sentinel, Capability: capability, Field: field}
}

func newCodecError(sentinel error, cause error) error {
	return &CodecError{Err: sentinel, Cause: cause}
}
