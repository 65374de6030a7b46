package pastemagic

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeChain_Layering(t *testing.T) {
	data := []byte("Hi")

	tests := []struct {
		name  string
		chain []Encoding
		want  string
	}{
		{"empty means utf8", nil, "Hi"},
		{"utf8", []Encoding{EncodingUTF8}, "Hi"},
		{"hex", []Encoding{EncodingHex}, "4869"},
		{"base64", []Encoding{EncodingBase64}, "SGk="},
		{"urlsafe has no padding", []Encoding{EncodingBase64URLSafe}, "SGk"},
		{"base64 of hex", []Encoding{EncodingBase64, EncodingHex}, "NDg2OQ=="},
		{"hex of base64", []Encoding{EncodingHex, EncodingBase64}, "53476b3d"},
		{"lowercase names", []Encoding{"hex"}, "4869"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeChain(data, tt.chain)
			if err != nil {
				t.Fatalf("EncodeChain() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("EncodeChain() = %q, want %q", got, tt.want)
			}

			back, err := DecodeChain(got, tt.chain)
			if err != nil {
				t.Fatalf("DecodeChain() error: %v", err)
			}
			if !bytes.Equal(back, data) {
				t.Errorf("DecodeChain() = %q, want %q", back, data)
			}
		})
	}
}

func TestEncodeChain_BinaryNeedsTextLayer(t *testing.T) {
	_, err := EncodeChain([]byte{0xff, 0xfe}, []Encoding{EncodingUTF8})
	if !errors.Is(err, ErrEncode) {
		t.Errorf("expected ErrEncode, got %v", err)
	}
}

func TestEncodeChain_UnknownEncoding(t *testing.T) {
	_, err := EncodeChain([]byte("x"), []Encoding{"ROT13"})
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
	}
	_, err = DecodeChain("x", []Encoding{"ROT13"})
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestDecodeChain_URLSafeAcceptsPadding(t *testing.T) {
	got, err := DecodeChain("SGk=", []Encoding{EncodingBase64URLSafe})
	if err != nil {
		t.Fatalf("DecodeChain() error: %v", err)
	}
	if string(got) != "Hi" {
		t.Errorf("DecodeChain() = %q", got)
	}
}

func TestDecodeChain_BadLayer(t *testing.T) {
	_, err := DecodeChain("zz", []Encoding{EncodingHex})
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestHasEncoding(t *testing.T) {
	chain := []Encoding{"base64", EncodingHex}
	if !HasEncoding(chain, EncodingBase64) {
		t.Error("expected BASE64 in chain")
	}
	if HasEncoding(chain, EncodingUTF8) {
		t.Error("did not expect UTF8 in chain")
	}
}

func TestParseEncodings(t *testing.T) {
	got, err := ParseEncodings([]string{"hex", " Base64_UrlSafe "})
	if err != nil {
		t.Fatalf("ParseEncodings() error: %v", err)
	}
	if len(got) != 2 || got[0] != EncodingHex || got[1] != EncodingBase64URLSafe {
		t.Errorf("ParseEncodings() = %v", got)
	}

	if _, err := ParseEncodings([]string{"utf16"}); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
	}
}
