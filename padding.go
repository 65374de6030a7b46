package pastemagic

import (
	"bytes"
	"fmt"
)

func isBlockPadding(p Padding) bool {
	switch p {
	case PaddingPKCS5, PaddingPKCS7, PaddingZero, PaddingNone:
		return true
	}
	return false
}

// pad extends data to a multiple of the block size.
// PKCS#5 and PKCS#7 are treated alike; zero padding adds nothing to input
// that is already aligned; no padding requires aligned input.
func pad(data []byte, blockSize int, p Padding) ([]byte, error) {
	switch p {
	case PaddingPKCS5, PaddingPKCS7:
		n := blockSize - len(data)%blockSize
		return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...), nil
	case PaddingZero:
		n := (blockSize - len(data)%blockSize) % blockSize
		return append(append([]byte(nil), data...), make([]byte, n)...), nil
	case PaddingNone:
		if len(data)%blockSize != 0 {
			return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d with no padding", ErrInvalidInput, len(data), blockSize)
		}
		return append([]byte(nil), data...), nil
	default:
		return nil, fmt.Errorf("%w: padding %q", ErrUnsupportedAlgorithm, p)
	}
}

func unpad(data []byte, blockSize int, p Padding) ([]byte, error) {
	switch p {
	case PaddingPKCS5, PaddingPKCS7:
		if len(data) == 0 {
			return nil, ErrCiphertextShort
		}
		n := int(data[len(data)-1])
		if n == 0 || n > blockSize || n > len(data) {
			return nil, fmt.Errorf("%w: bad padding", ErrDecryptionFailed)
		}
		for _, b := range data[len(data)-n:] {
			if int(b) != n {
				return nil, fmt.Errorf("%w: bad padding", ErrDecryptionFailed)
			}
		}
		return data[:len(data)-n], nil
	case PaddingZero:
		return bytes.TrimRight(data, "\x00"), nil
	case PaddingNone:
		return data, nil
	default:
		return nil, fmt.Errorf("%w: padding %q", ErrUnsupportedAlgorithm, p)
	}
}
