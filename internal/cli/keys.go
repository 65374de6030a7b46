package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
	"github.com/pastemagic/pastemagic/internal/keystore"
	"github.com/pastemagic/pastemagic/json"
	"github.com/pastemagic/pastemagic/msgpack"
	"github.com/pastemagic/pastemagic/yaml"
)

// keystoreCodecs picks the serialization of stored configs per backend.
var keystoreCodecs = map[keystore.Backend]func() pastemagic.Codec{
	keystore.BackendFile:   yaml.New,
	keystore.BackendSQLite: msgpack.New,
	keystore.BackendMemory: json.New,
}

// openKeystore opens the configured keystore and makes sure the default
// config exists.
func (a *app) openKeystore(ctx context.Context) (*keystore.Manager, error) {
	backend := keystore.Backend(a.cfg.Keystore.Backend)
	newCodec, ok := keystoreCodecs[backend]
	if !ok {
		return nil, fmt.Errorf("unknown keystore backend %q", backend)
	}

	store, err := keystore.OpenStore(backend, a.cfg.Keystore.Path)
	if err != nil {
		return nil, err
	}
	m, err := keystore.New(ctx, store, keystore.Options{
		Passphrase: a.cfg.Keystore.Passphrase,
		Codec:      newCodec(),
		Argon2:     a.argon2,
		Logger:     a.logger.Named("keystore"),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if _, err := m.EnsureDefault(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	a.logger.Debug("keystore opened", zap.String("backend", string(backend)), zap.String("path", a.cfg.Keystore.Path))
	return m, nil
}

// keyConfig loads a stored config by name, or the default one.
func (a *app) keyConfig(cmd *cobra.Command, name string) (*keystore.KeyConfig, error) {
	m, err := a.openKeystore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer m.Close()

	if name == "" {
		name = keystore.DefaultName
	}
	return m.Get(cmd.Context(), name)
}

func (a *app) keysCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored key configs",
	}

	c.AddCommand(
		a.keysListCmd(),
		a.keysAddCmd(),
		a.keysShowCmd(),
		a.keysExportCmd(),
		a.keysSetCmd(),
		a.keysDeleteCmd(),
		a.keysGenRSACmd(),
	)
	return c
}

// withKeystore runs fn against an open keystore.
func (a *app) withKeystore(cmd *cobra.Command, fn func(m *keystore.Manager) error) error {
	m, err := a.openKeystore(cmd.Context())
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func (a *app) keysListCmd() *cobra.Command {
	var page int

	c := &cobra.Command{
		Use:   "list",
		Short: "List key configs with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withKeystore(cmd, func(m *keystore.Manager) error {
				p, err := m.List(cmd.Context(), page)
				if err != nil {
					return err
				}
				return a.print(cmd, &keyPageResult{Page: *p})
			})
		},
	}

	c.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return c
}

func (a *app) keysAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a key config with the default settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKeystore(cmd, func(m *keystore.Manager) error {
				cfg, err := m.Add(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printKeyConfig(cmd, m, cfg, false)
			})
		},
	}
}

func (a *app) keysShowCmd() *cobra.Command {
	var reveal, sealed bool

	c := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a key config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKeystore(cmd, func(m *keystore.Manager) error {
				cfg, err := m.Get(cmd.Context(), nameArg(args))
				if err != nil {
					return err
				}
				if sealed {
					data, err := m.Sealed(cmd.Context(), cfg)
					if err != nil {
						return err
					}
					return a.printStored(cmd, m, data)
				}
				return a.printKeyConfig(cmd, m, cfg, reveal)
			})
		},
	}

	c.Flags().BoolVar(&reveal, "reveal", false, "show secrets in clear")
	c.Flags().BoolVar(&sealed, "sealed", false, "show the config as it is stored, secrets sealed")
	c.MarkFlagsMutuallyExclusive("reveal", "sealed")
	return c
}

func (a *app) keysExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [name]",
		Short: "Print a key config with secrets masked, ready to share",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKeystore(cmd, func(m *keystore.Manager) error {
				cfg, err := m.Get(cmd.Context(), nameArg(args))
				if err != nil {
					return err
				}
				data, err := m.Export(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				return a.printStored(cmd, m, data)
			})
		},
	}
}

func nameArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return keystore.DefaultName
}

// printStored prints data serialized by the keystore codec. Binary codecs
// are printed as base64.
func (a *app) printStored(cmd *cobra.Command, m *keystore.Manager, data []byte) error {
	switch m.ContentType() {
	case "application/json", "application/yaml":
		return a.print(cmd, string(data))
	}
	s, err := pastemagic.EncodeChain(data, []pastemagic.Encoding{pastemagic.EncodingBase64})
	if err != nil {
		return err
	}
	return a.print(cmd, s)
}

func (a *app) keysSetCmd() *cobra.Command {
	var (
		rename         string
		algorithm      string
		key            string
		keyEncoding    []string
		iv             string
		ivEncoding     []string
		plainEncoding  []string
		cipherEncoding []string
	)

	c := &cobra.Command{
		Use:   "set <name>",
		Short: "Change a key config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKeystore(cmd, func(m *keystore.Manager) error {
				cfg, err := m.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("name") {
					cfg.Name = rename
				}
				if flags.Changed("algorithm") {
					cfg.Algorithm = algorithm
				}
				if flags.Changed("key") {
					cfg.Key = key
				}
				if flags.Changed("iv") {
					cfg.IV = iv
				}
				for flag, target := range map[string]struct {
					names []string
					chain *[]pastemagic.Encoding
				}{
					"key-encoding":    {keyEncoding, &cfg.KeyEncoding},
					"iv-encoding":     {ivEncoding, &cfg.IVEncoding},
					"plain-encoding":  {plainEncoding, &cfg.PlainEncoding},
					"cipher-encoding": {cipherEncoding, &cfg.CipherEncoding},
				} {
					if !flags.Changed(flag) {
						continue
					}
					if *target.chain, err = pastemagic.ParseEncodings(target.names); err != nil {
						return err
					}
				}

				if err := m.Save(cmd.Context(), *cfg); err != nil {
					return err
				}
				a.logger.Info("key config saved", zap.String("name", cfg.Name))
				return a.printKeyConfig(cmd, m, cfg, false)
			})
		},
	}

	c.Flags().StringVar(&rename, "name", "", "new name")
	c.Flags().StringVarP(&algorithm, "algorithm", "a", "", "algorithm, e.g. AES/CBC/PKCS5Padding")
	c.Flags().StringVar(&key, "key", "", "symmetric key")
	c.Flags().StringSliceVar(&keyEncoding, "key-encoding", nil, "key encoding chain")
	c.Flags().StringVar(&iv, "iv", "", "initialization vector")
	c.Flags().StringSliceVar(&ivEncoding, "iv-encoding", nil, "IV encoding chain")
	c.Flags().StringSliceVar(&plainEncoding, "plain-encoding", nil, "plaintext encoding chain")
	c.Flags().StringSliceVar(&cipherEncoding, "cipher-encoding", nil, "ciphertext encoding chain")
	return c
}

func (a *app) keysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a key config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKeystore(cmd, func(m *keystore.Manager) error {
				if err := m.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				a.logger.Info("key config deleted", zap.String("name", args[0]))
				return a.print(cmd, fmt.Sprintf("deleted %s", args[0]))
			})
		},
	}
}

func (a *app) keysGenRSACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-rsa <name>",
		Short: "Generate a 2048-bit RSA key pair for a key config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKeystore(cmd, func(m *keystore.Manager) error {
				cfg, err := m.GenerateRSA(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printKeyConfig(cmd, m, cfg, false)
			})
		},
	}
}

func (a *app) printKeyConfig(cmd *cobra.Command, m *keystore.Manager, cfg *keystore.KeyConfig, reveal bool) error {
	if !reveal {
		masked, err := m.Masked(cfg)
		if err != nil {
			return err
		}
		cfg = masked
	}
	return a.print(cmd, &keyConfigResult{KeyConfig: *cfg})
}
