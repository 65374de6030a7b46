package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
)

// cipherFlags describes a cipher setup given on the command line. When no
// key material is given the named (or default) key config is used.
type cipherFlags struct {
	keyConfig      string
	algorithm      string
	key            string
	keyEncoding    []string
	iv             string
	ivEncoding     []string
	publicKeyFile  string
	privateKeyFile string
	plainEncoding  []string
	cipherEncoding []string
}

func (f *cipherFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&f.keyConfig, "key-config", "k", "", "use a stored key config (default config when no key is given)")
	c.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "algorithm, e.g. AES/CBC/PKCS5Padding, SM4/ECB/NoPadding, RSA/ECB/OAEPPadding")
	c.Flags().StringVar(&f.key, "key", "", "symmetric key")
	c.Flags().StringSliceVar(&f.keyEncoding, "key-encoding", []string{string(pastemagic.EncodingHex)}, "key encoding chain")
	c.Flags().StringVar(&f.iv, "iv", "", "initialization vector")
	c.Flags().StringSliceVar(&f.ivEncoding, "iv-encoding", []string{string(pastemagic.EncodingUTF8)}, "IV encoding chain")
	c.Flags().StringVar(&f.publicKeyFile, "public-key-file", "", "PEM public key for RSA encryption")
	c.Flags().StringVar(&f.privateKeyFile, "private-key-file", "", "PEM private key for RSA decryption")
	c.Flags().StringSliceVar(&f.plainEncoding, "plain-encoding", []string{string(pastemagic.EncodingUTF8)}, "plaintext encoding chain")
	c.Flags().StringSliceVar(&f.cipherEncoding, "cipher-encoding", []string{string(pastemagic.EncodingBase64)}, "ciphertext encoding chain")
}

func (f *cipherFlags) inline() bool {
	return f.key != "" || f.publicKeyFile != "" || f.privateKeyFile != ""
}

func (f *cipherFlags) config() (pastemagic.CipherConfig, error) {
	cfg := pastemagic.CipherConfig{Algorithm: f.algorithm}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "AES/CBC/PKCS5Padding"
	}

	var err error
	if cfg.Key.Encoding, err = pastemagic.ParseEncodings(f.keyEncoding); err != nil {
		return cfg, err
	}
	if cfg.IV.Encoding, err = pastemagic.ParseEncodings(f.ivEncoding); err != nil {
		return cfg, err
	}
	if cfg.PlainEncoding, err = pastemagic.ParseEncodings(f.plainEncoding); err != nil {
		return cfg, err
	}
	if cfg.CipherEncoding, err = pastemagic.ParseEncodings(f.cipherEncoding); err != nil {
		return cfg, err
	}
	cfg.Key.Value = f.key
	cfg.IV.Value = f.iv

	pemChain := []pastemagic.Encoding{pastemagic.EncodingUTF8}
	if f.publicKeyFile != "" {
		data, err := os.ReadFile(f.publicKeyFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to read public key: %w", err)
		}
		cfg.PublicKey = pastemagic.Material{Value: string(data), Encoding: pemChain}
	}
	if f.privateKeyFile != "" {
		data, err := os.ReadFile(f.privateKeyFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to read private key: %w", err)
		}
		cfg.PrivateKey = pastemagic.Material{Value: string(data), Encoding: pemChain}
	}
	return cfg, nil
}

func (a *app) encryptCmd() *cobra.Command {
	return a.cipherCmd("encrypt", "Encrypt text with AES, SM4 or RSA")
}

func (a *app) decryptCmd() *cobra.Command {
	return a.cipherCmd("decrypt", "Decrypt text with AES, SM4 or RSA")
}

func (a *app) cipherCmd(op, short string) *cobra.Command {
	var flags cipherFlags

	c := &cobra.Command{
		Use:   op + " [text]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}

			res := &cipherResult{Operation: op}
			var cfg pastemagic.CipherConfig
			if flags.inline() {
				if cfg, err = flags.config(); err != nil {
					return err
				}
			} else {
				kc, err := a.keyConfig(cmd, flags.keyConfig)
				if err != nil {
					return err
				}
				cfg = kc.CipherConfig()
				res.Config = kc.Name
			}
			res.Algorithm = cfg.Algorithm
			a.logger.Debug("cipher", zap.String("op", op), zap.String("algorithm", cfg.Algorithm), zap.String("config", res.Config))

			if op == "encrypt" {
				res.Output, err = pastemagic.Encrypt(cmd.Context(), s, cfg)
			} else {
				res.Output, err = pastemagic.Decrypt(cmd.Context(), strings.TrimSpace(s), cfg)
			}
			if err != nil {
				return err
			}
			return a.print(cmd, res)
		},
	}

	flags.register(c)
	return c
}
