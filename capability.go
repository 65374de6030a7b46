package pastemagic

import "strings"

// Kind is the content type assigned to pasted text by Detect.
type Kind string

const (
	KindEmpty     Kind = "empty"
	KindIPv4      Kind = "ip"
	KindIPv6      Kind = "ipv6"
	KindCIDR      Kind = "cidr"
	KindIPv6CIDR  Kind = "ipv6cidr"
	KindDomain    Kind = "domain"
	KindCron      Kind = "cron"
	KindTimestamp Kind = "timestamp"
	KindDateTime  Kind = "datetime"
	KindJSON      Kind = "json"
	KindURL       Kind = "url"
	KindEncoded   Kind = "encode"
)

var kindLabels = map[Kind]string{
	KindEmpty:     "Default IP",
	KindIPv4:      "IPv4 address",
	KindIPv6:      "IPv6 address",
	KindCIDR:      "IPv4 subnet",
	KindIPv6CIDR:  "IPv6 subnet",
	KindDomain:    "Domain",
	KindCron:      "Cron expression",
	KindTimestamp: "Timestamp",
	KindDateTime:  "Date time",
	KindJSON:      "JSON",
	KindURL:       "URL",
	KindEncoded:   "Encoded text",
}

// Label returns a human readable name for the kind.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// IsNetwork reports whether the kind is handled by the IP tool.
func (k Kind) IsNetwork() bool {
	switch k {
	case KindIPv4, KindIPv6, KindCIDR, KindIPv6CIDR:
		return true
	}
	return false
}

// TextFormat is a reversible text representation handled by the encode tool.
type TextFormat string

const (
	FormatBase64    TextFormat = "base64"
	FormatHex       TextFormat = "hex"
	FormatURL       TextFormat = "url"
	FormatUnicode   TextFormat = "unicode"
	FormatASCII     TextFormat = "ascii"
	FormatUTF8Bytes TextFormat = "utf8-bytes"

	// FormatPlain is reported by DetectTextFormat for text in no known format.
	FormatPlain TextFormat = "plain"
)

// Encoding names one layer of an encoding chain used for key material,
// plaintext and ciphertext.
type Encoding string

const (
	EncodingUTF8          Encoding = "UTF8"
	EncodingHex           Encoding = "HEX"
	EncodingBase64        Encoding = "BASE64"
	EncodingBase64URLSafe Encoding = "BASE64_URLSAFE"
)

// CipherAlgo is the main algorithm part of an algorithm string.
type CipherAlgo string

const (
	CipherAES CipherAlgo = "AES"
	CipherSM4 CipherAlgo = "SM4"
	CipherRSA CipherAlgo = "RSA"
)

// Mode is a block cipher mode of operation.
type Mode string

const (
	ModeECB Mode = "ECB"
	ModeCBC Mode = "CBC"
	ModeCFB Mode = "CFB"
	ModeOFB Mode = "OFB"
	ModeCTR Mode = "CTR"
	ModeGCM Mode = "GCM"
)

// Padding is a block padding scheme, or an RSA padding scheme.
type Padding string

const (
	PaddingPKCS5 Padding = "PKCS5PADDING"
	PaddingPKCS7 Padding = "PKCS7PADDING"
	PaddingZero  Padding = "ZEROPADDING"
	PaddingNone  Padding = "NOPADDING"
	PaddingPKCS1 Padding = "PKCS1PADDING"
	PaddingOAEP  Padding = "OAEPPADDING"
)

// HashAlgo represents a supported hashing algorithm.
type HashAlgo string

const (
	HashMD5     HashAlgo = "md5"
	HashSHA1    HashAlgo = "sha1"
	HashSHA256  HashAlgo = "sha256"
	HashSHA512  HashAlgo = "sha512"
	HashSHA3256 HashAlgo = "sha3-256"
	HashSM3     HashAlgo = "sm3"

	// HashArgon2 uses Argon2id for password hashing (salted, slow).
	HashArgon2 HashAlgo = "argon2"

	// HashBcrypt uses bcrypt for password hashing (salted, slow).
	HashBcrypt HashAlgo = "bcrypt"
)

// EncryptAlgo names an encryptor used by the field processor.
// Use these constants in struct tags: `store.encrypt:"aes"`
type EncryptAlgo string

const (
	// EncryptAES uses AES-GCM symmetric encryption.
	EncryptAES EncryptAlgo = "aes"
)

var textFormats = []TextFormat{
	FormatBase64,
	FormatHex,
	FormatURL,
	FormatUnicode,
	FormatASCII,
	FormatUTF8Bytes,
}

var validEncodings = map[Encoding]bool{
	EncodingUTF8:          true,
	EncodingHex:           true,
	EncodingBase64:        true,
	EncodingBase64URLSafe: true,
}

var validModes = map[Mode]bool{
	ModeECB: true,
	ModeCBC: true,
	ModeCFB: true,
	ModeOFB: true,
	ModeCTR: true,
	ModeGCM: true,
}

var validHashAlgos = map[HashAlgo]bool{
	HashMD5:     true,
	HashSHA1:    true,
	HashSHA256:  true,
	HashSHA512:  true,
	HashSHA3256: true,
	HashSM3:     true,
	HashArgon2:  true,
	HashBcrypt:  true,
}

var validMaskTypes = map[MaskType]bool{
	MaskSecret: true,
	MaskPEM:    true,
	MaskIP:     true,
}

var validEncryptAlgos = map[EncryptAlgo]bool{
	EncryptAES: true,
}

// TextFormats returns the text formats in the order the encode tool shows them.
func TextFormats() []TextFormat {
	return append([]TextFormat(nil), textFormats...)
}

// ParseEncoding normalizes an encoding name ("hex", "Base64", ...).
func ParseEncoding(name string) (Encoding, error) {
	enc := Encoding(strings.ToUpper(strings.TrimSpace(name)))
	if !validEncodings[enc] {
		return "", newConfigError(ErrUnsupportedEncoding, name, "")
	}
	return enc, nil
}

// ParseEncodings normalizes a list of encoding names.
func ParseEncodings(names []string) ([]Encoding, error) {
	out := make([]Encoding, 0, len(names))
	for _, n := range names {
		enc, err := ParseEncoding(n)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// IsValidTextFormat returns true if the format is handled by the encode tool.
func IsValidTextFormat(f TextFormat) bool {
	for _, tf := range textFormats {
		if tf == f {
			return true
		}
	}
	return false
}

// IsValidMode returns true if the mode is a known block cipher mode.
func IsValidMode(m Mode) bool {
	return validModes[m]
}

// IsValidHashAlgo returns true if the algorithm is a known hash algorithm.
func IsValidHashAlgo(algo HashAlgo) bool {
	return validHashAlgos[algo]
}

// IsValidMaskType returns true if the type is a known mask type.
func IsValidMaskType(mt MaskType) bool {
	return validMaskTypes[mt]
}

// IsValidEncryptAlgo returns true if the algorithm is a known field encryptor.
func IsValidEncryptAlgo(algo EncryptAlgo) bool {
	return validEncryptAlgos[algo]
}
