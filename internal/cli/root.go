// Package cli implements the pastemagic command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
	"github.com/pastemagic/pastemagic/internal/config"
	"github.com/pastemagic/pastemagic/internal/logger"
	"github.com/pastemagic/pastemagic/internal/render"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	output     string
	verbose    bool
	file       string
	clip       bool

	cfg    *config.Config
	logger *zap.Logger

	now           func() time.Time
	readClipboard func() (string, error)
	argon2        *pastemagic.Argon2Params
}

func newApp() *app {
	return &app{
		now:           time.Now,
		readClipboard: clipboard.ReadAll,
		logger:        zap.NewNop(),
	}
}

func newRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pastemagic",
		Short: "Inspect and convert pasted text",
		Long: `pastemagic classifies pasted text (IP addresses and subnets, domains, cron
expressions, timestamps, JSON, URLs or encoded data) and runs the matching tool.

Input is read from the arguments, --file, --clipboard or stdin.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", "", "output format: text|json|yaml|xml")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&a.file, "file", "f", "", "read input from a file")
	cmd.PersistentFlags().BoolVar(&a.clip, "clipboard", false, "read input from the system clipboard")

	cmd.AddCommand(
		a.inspectCmd(),
		a.detectCmd(),
		a.transcodeCmd(),
		a.encodeCmd(),
		a.decodeCmd(),
		a.encryptCmd(),
		a.decryptCmd(),
		a.hashCmd(),
		a.ipCmd(),
		a.myIPCmd(),
		a.dnsCmd(),
		a.cronCmd(),
		a.timeCmd(),
		a.jsonCmd(),
		a.urlCmd(),
		a.keysCmd(),
	)
	return cmd
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.output != "" {
		if _, err := render.ParseFormat(a.output); err != nil {
			return err
		}
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(a.output))
	}
	a.cfg = cfg

	l, err := logger.New(cfg.Log, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = l
	a.logger.Debug("config loaded", zap.String("path", path), zap.String("output", cfg.Output.Format))
	return nil
}

func (a *app) renderer(w io.Writer) *render.Renderer {
	format, _ := render.ParseFormat(a.cfg.Output.Format)
	return render.New(w, format, a.cfg.Output.Color)
}

func (a *app) print(cmd *cobra.Command, v any) error {
	return a.renderer(cmd.OutOrStdout()).Render(v)
}

// input collects the text to work on: the arguments joined by spaces, then
// --file, then --clipboard, then stdin when it is not a terminal. One
// trailing line ending is dropped from files and stdin.
func (a *app) input(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case a.file != "":
		data, err := os.ReadFile(a.file)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return trimNewline(string(data)), nil
	case a.clip:
		s, err := a.readClipboard()
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		return s, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return trimNewline(string(data)), nil
}

// trimNewline drops the line ending that files and pipes usually carry.
func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// requireInput is input for commands that cannot work on empty text.
func (a *app) requireInput(cmd *cobra.Command, args []string) (string, error) {
	s, err := a.input(cmd, args)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: no input given", pastemagic.ErrInvalidInput)
	}
	return s, nil
}

func (a *app) location() (*time.Location, error) {
	return a.cfg.Location()
}
