package keystore

import (
	"cmp"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
	"github.com/pastemagic/pastemagic/json"
)

// PageSize is the number of configurations per List page.
const PageSize = 5

// DefaultName names the configuration created in an empty keystore.
const DefaultName = "default"

const (
	configPrefix = "configs/"
	saltKey      = "meta/salt"
	checkKey     = "meta/check"
	checkText    = "pastemagic keystore"
)

var (
	ErrNameRequired    = errors.New("config name is required")
	ErrDuplicateName   = errors.New("config name already exists")
	ErrConfigNotFound  = errors.New("config not found")
	ErrLastConfig      = errors.New("at least one config must remain")
	ErrWrongPassphrase = errors.New("wrong keystore passphrase")
)

// Options configures a Manager.
type Options struct {
	// Passphrase seals secret fields. An empty passphrase still seals them,
	// under a key anyone can derive.
	Passphrase string

	// Codec serializes configurations. Defaults to JSON.
	Codec pastemagic.Codec

	// Argon2 parameters for deriving the sealing key. KeyLen is forced to 32.
	Argon2 *pastemagic.Argon2Params

	Logger *zap.Logger
}

// Manager keeps named key configurations in a Store.
type Manager struct {
	store  Store
	codec  pastemagic.Codec
	proc   *pastemagic.Processor[KeyConfig]
	logger *zap.Logger

	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

// New opens the keystore held by store. The first call on an empty store
// creates the salt and a passphrase check; later calls with a different
// passphrase fail with ErrWrongPassphrase.
func New(ctx context.Context, store Store, opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	codec := opts.Codec
	if codec == nil {
		codec = json.New()
	}
	params := pastemagic.DefaultArgon2Params()
	if opts.Argon2 != nil {
		params = *opts.Argon2
	}
	params.KeyLen = 32

	salt, err := loadOrCreateSalt(ctx, store, params.SaltLen)
	if err != nil {
		return nil, err
	}

	sealer, err := pastemagic.AES(pastemagic.DeriveKey([]byte(opts.Passphrase), salt, params))
	if err != nil {
		return nil, err
	}
	if err := checkPassphrase(ctx, store, sealer); err != nil {
		return nil, err
	}

	proc, err := pastemagic.NewProcessor[KeyConfig](codec)
	if err != nil {
		return nil, err
	}
	proc.SetEncryptor(pastemagic.EncryptAES, sealer)

	return &Manager{
		store:  store,
		codec:  codec,
		proc:   proc,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

func loadOrCreateSalt(ctx context.Context, store Store, n uint32) ([]byte, error) {
	raw, err := store.Get(ctx, saltKey)
	if err == nil {
		salt, derr := hex.DecodeString(string(raw))
		if derr != nil {
			return nil, fmt.Errorf("keystore salt: %w", derr)
		}
		return salt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if n == 0 {
		n = 16
	}
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	if err := store.Set(ctx, saltKey, []byte(hex.EncodeToString(salt))); err != nil {
		return nil, err
	}
	return salt, nil
}

func checkPassphrase(ctx context.Context, store Store, sealer pastemagic.Encryptor) error {
	raw, err := store.Get(ctx, checkKey)
	if errors.Is(err, ErrNotFound) {
		ct, eerr := sealer.Encrypt([]byte(checkText))
		if eerr != nil {
			return eerr
		}
		return store.Set(ctx, checkKey, []byte(base64.StdEncoding.EncodeToString(ct)))
	}
	if err != nil {
		return err
	}

	ct, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return fmt.Errorf("keystore check: %w", err)
	}
	pt, err := sealer.Decrypt(ct)
	if err != nil || string(pt) != checkText {
		return ErrWrongPassphrase
	}
	return nil
}

// All returns every configuration, oldest first.
func (m *Manager) All(ctx context.Context) ([]KeyConfig, error) {
	keys, err := m.store.Keys(ctx, configPrefix)
	if err != nil {
		return nil, err
	}

	configs := make([]KeyConfig, 0, len(keys))
	for _, k := range keys {
		data, err := m.store.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		cfg, err := m.proc.Load(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", strings.TrimPrefix(k, configPrefix), err)
		}
		configs = append(configs, *cfg)
	}

	slices.SortStableFunc(configs, func(a, b KeyConfig) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return configs, nil
}

// Get returns the configuration called name with its secrets opened.
func (m *Manager) Get(ctx context.Context, name string) (*KeyConfig, error) {
	configs, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for i := range configs {
		if configs[i].Name == name {
			return &configs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
}

// Add creates a configuration with the defaults. Names are trimmed, required
// and unique.
func (m *Manager) Add(ctx context.Context, name string) (*KeyConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	configs, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(configs, func(c KeyConfig) bool { return c.Name == name }) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	cfg := NewKeyConfig(m.newID(), name, m.now().UTC())
	if err := m.put(ctx, &cfg); err != nil {
		return nil, err
	}
	m.logger.Debug("key config added", zap.String("name", name), zap.String("id", cfg.ID))
	return &cfg, nil
}

// Save replaces the stored configuration with the same ID. Renames must stay
// unique.
func (m *Manager) Save(ctx context.Context, cfg KeyConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg.Name = strings.TrimSpace(cfg.Name)
	if err := cfg.Validate(); err != nil {
		return err
	}

	configs, err := m.All(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, c := range configs {
		switch {
		case c.ID == cfg.ID:
			found = true
			cfg.CreatedAt = c.CreatedAt
		case c.Name == cfg.Name:
			return fmt.Errorf("%w: %q", ErrDuplicateName, cfg.Name)
		}
	}
	if !found {
		return fmt.Errorf("%w: id %s", ErrConfigNotFound, cfg.ID)
	}

	if err := m.put(ctx, &cfg); err != nil {
		return err
	}
	m.logger.Debug("key config saved", zap.String("name", cfg.Name), zap.String("algorithm", cfg.Algorithm))
	return nil
}

// Delete removes the configuration called name. The last configuration
// cannot be deleted.
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	configs, err := m.All(ctx)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	i := slices.IndexFunc(configs, func(c KeyConfig) bool { return c.Name == name })
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}
	if len(configs) <= 1 {
		return ErrLastConfig
	}

	if err := m.store.Remove(ctx, configPrefix+configs[i].ID); err != nil {
		return err
	}
	m.logger.Debug("key config deleted", zap.String("name", name))
	return nil
}

// GenerateRSA gives the configuration called name a new 2048-bit PEM key
// pair. A non-RSA algorithm is switched to RSA/ECB/PKCS1Padding.
func (m *Manager) GenerateRSA(ctx context.Context, name string) (*KeyConfig, error) {
	cfg, err := m.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	pair, err := pastemagic.GenerateRSAKeyPair(DefaultRSABits)
	if err != nil {
		return nil, err
	}
	cfg.PublicKey = pair.PublicKey
	cfg.PrivateKey = pair.PrivateKey
	if !cfg.IsRSA() {
		cfg.Algorithm = "RSA/ECB/PKCS1Padding"
	}

	if err := m.Save(ctx, *cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureDefault creates DefaultName with a random AES-128 key and IV when
// the keystore holds no configuration, and returns the first configuration.
func (m *Manager) EnsureDefault(ctx context.Context) (*KeyConfig, error) {
	configs, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(configs) > 0 {
		return &configs[0], nil
	}

	cfg, err := m.Add(ctx, DefaultName)
	if err != nil {
		return nil, err
	}
	key := make([]byte, 16)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	cfg.Key = hex.EncodeToString(key)
	if cfg.IV, err = randomText(16); err != nil {
		return nil, err
	}
	if err := m.Save(ctx, *cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Page is one page of masked configurations.
type Page struct {
	Items []KeyConfig `json:"items" yaml:"items" xml:"items>config"`
	Page  int         `json:"page" yaml:"page" xml:"page"`
	Pages int         `json:"pages" yaml:"pages" xml:"pages"`
	Total int         `json:"total" yaml:"total" xml:"total"`
}

// List returns page n (1-based, clamped) of PageSize configurations with
// their secrets masked.
func (m *Manager) List(ctx context.Context, n int) (*Page, error) {
	configs, err := m.All(ctx)
	if err != nil {
		return nil, err
	}

	pages := max(1, (len(configs)+PageSize-1)/PageSize)
	n = min(max(n, 1), pages)
	start := (n - 1) * PageSize
	end := min(start+PageSize, len(configs))

	page := &Page{Page: n, Pages: pages, Total: len(configs), Items: make([]KeyConfig, 0, end-start)}
	for i := start; i < end; i++ {
		masked, err := m.Masked(&configs[i])
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *masked)
	}
	return page, nil
}

// Masked returns a copy of cfg with its secrets masked for display.
func (m *Manager) Masked(cfg *KeyConfig) (*KeyConfig, error) {
	return m.proc.Mask(cfg)
}

// Sealed returns cfg serialized the way it is stored.
func (m *Manager) Sealed(ctx context.Context, cfg *KeyConfig) ([]byte, error) {
	return m.proc.Store(ctx, cfg)
}

// Export serializes cfg with its secrets masked, in the keystore's codec.
func (m *Manager) Export(ctx context.Context, cfg *KeyConfig) ([]byte, error) {
	return m.proc.Send(ctx, cfg)
}

// ContentType is the content type of Sealed and Export output.
func (m *Manager) ContentType() string {
	return m.codec.ContentType()
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) put(ctx context.Context, cfg *KeyConfig) error {
	data, err := m.proc.Store(ctx, cfg)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, configPrefix+cfg.ID, data)
}

const ivAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomText(n int) (string, error) {
	buf := make([]byte, n)
	limit := big.NewInt(int64(len(ivAlphabet)))
	for i := range buf {
		j, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = ivAlphabet[j.Int64()]
	}
	return string(buf), nil
}
