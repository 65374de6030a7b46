package pastemagic

import (
	"crypto/md5" //nolint:gosec // offered as a digest tool, not for security
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // offered as a digest tool, not for security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/tjfoc/gmsm/sm3"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"
)

// Hasher performs one-way hashing.
type Hasher interface {
	// Hash returns the hash of plaintext as a string.
	// For password hashers (argon2, bcrypt), the result includes salt and parameters.
	// For digests, the result is lowercase hex.
	Hash(plaintext []byte) (string, error)
}

// Argon2Params configures Argon2id hashing.
type Argon2Params struct {
	Time    uint32 // Number of iterations
	Memory  uint32 // Memory usage in KiB
	Threads uint8  // Parallelism factor
	KeyLen  uint32 // Output key length
	SaltLen uint32 // Salt length
}

// DefaultArgon2Params returns recommended Argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

type argon2Hasher struct {
	params Argon2Params
}

// Argon2 returns an Argon2id hasher with default parameters.
func Argon2() Hasher {
	return Argon2WithParams(DefaultArgon2Params())
}

// Argon2WithParams returns an Argon2id hasher with custom parameters.
func Argon2WithParams(params Argon2Params) Hasher {
	return &argon2Hasher{params: params}
}

func (h *argon2Hasher) Hash(plaintext []byte) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	sum := argon2.IDKey(plaintext, salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// DeriveKey stretches a passphrase into a key with Argon2id.
// The same passphrase and salt always give the same key.
func DeriveKey(passphrase, salt []byte, params Argon2Params) []byte {
	return argon2.IDKey(passphrase, salt, params.Time, params.Memory, params.Threads, params.KeyLen)
}

// BcryptCost represents the bcrypt cost factor.
type BcryptCost int

// Bcrypt cost constants.
const (
	BcryptMinCost     BcryptCost = BcryptCost(bcrypt.MinCost)
	BcryptDefaultCost BcryptCost = BcryptCost(bcrypt.DefaultCost)
	BcryptMaxCost     BcryptCost = BcryptCost(bcrypt.MaxCost)
)

type bcryptHasher struct {
	cost int
}

// Bcrypt returns a bcrypt hasher with default cost.
func Bcrypt() Hasher {
	return BcryptWithCost(BcryptDefaultCost)
}

// BcryptWithCost returns a bcrypt hasher with a specific cost factor.
func BcryptWithCost(cost BcryptCost) Hasher {
	return &bcryptHasher{cost: int(cost)}
}

func (h *bcryptHasher) Hash(plaintext []byte) (string, error) {
	sum, err := bcrypt.GenerateFromPassword(plaintext, h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash failed: %w", err)
	}
	return string(sum), nil
}

// digestHasher hex-encodes a plain message digest.
type digestHasher struct {
	newHash func() hash.Hash
}

func (h *digestHasher) Hash(plaintext []byte) (string, error) {
	d := h.newHash()
	d.Write(plaintext)
	return hex.EncodeToString(d.Sum(nil)), nil
}

// MD5Hasher returns an MD5 digest hasher.
func MD5Hasher() Hasher { return &digestHasher{newHash: md5.New} }

// SHA1Hasher returns a SHA-1 digest hasher.
func SHA1Hasher() Hasher { return &digestHasher{newHash: sha1.New} }

// SHA256Hasher returns a SHA-256 hasher.
// The result is a hex-encoded 64-character string.
func SHA256Hasher() Hasher { return &digestHasher{newHash: sha256.New} }

// SHA512Hasher returns a SHA-512 hasher.
// The result is a hex-encoded 128-character string.
func SHA512Hasher() Hasher { return &digestHasher{newHash: sha512.New} }

// SHA3Hasher returns a SHA3-256 hasher.
func SHA3Hasher() Hasher { return &digestHasher{newHash: sha3.New256} }

// SM3Hasher returns an SM3 hasher (GB/T 32905).
func SM3Hasher() Hasher { return &digestHasher{newHash: sm3.New} }

// builtinHashers returns the default hasher registry.
func builtinHashers() map[HashAlgo]Hasher {
	return map[HashAlgo]Hasher{
		HashMD5:     MD5Hasher(),
		HashSHA1:    SHA1Hasher(),
		HashSHA256:  SHA256Hasher(),
		HashSHA512:  SHA512Hasher(),
		HashSHA3256: SHA3Hasher(),
		HashSM3:     SM3Hasher(),
		HashArgon2:  Argon2(),
		HashBcrypt:  Bcrypt(),
	}
}

// Digests lists the deterministic hash algorithms in display order.
func Digests() []HashAlgo {
	return []HashAlgo{HashMD5, HashSHA1, HashSHA256, HashSHA512, HashSHA3256, HashSM3}
}

// HashResult is the outcome of one algorithm.
type HashResult struct {
	Algorithm HashAlgo `json:"algorithm" yaml:"algorithm" xml:"algorithm"`
	Sum       string   `json:"sum" yaml:"sum" xml:"sum"`
}

// HashText hashes s with each algorithm, or with every digest when algos is
// empty.
func HashText(s string, algos ...HashAlgo) ([]HashResult, error) {
	if len(algos) == 0 {
		algos = Digests()
	}
	hashers := builtinHashers()

	out := make([]HashResult, 0, len(algos))
	for _, algo := range algos {
		h, ok := hashers[algo]
		if !ok {
			return nil, fmt.Errorf("%w: hash %q", ErrUnsupportedAlgorithm, algo)
		}
		sum, err := h.Hash([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", algo, err)
		}
		out = append(out, HashResult{Algorithm: algo, Sum: sum})
	}
	return out, nil
}
