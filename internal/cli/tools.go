package cli

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
	"github.com/pastemagic/pastemagic/bson"
	"github.com/pastemagic/pastemagic/msgpack"
	"github.com/pastemagic/pastemagic/yaml"
)

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text]",
		Short: "Classify text without running a tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			kind := pastemagic.DetectContext(cmd.Context(), s)
			a.logger.Debug("detected", zap.String("kind", string(kind)))
			return a.print(cmd, &detectResult{Kind: kind, Label: kind.Label()})
		},
	}
}

func (a *app) transcodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcode [text]",
		Short: "Decode text in its detected format and encode it in every other",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}
			return a.print(cmd, &transcodeResult{TranscodeReport: *pastemagic.Transcode(s)})
		},
	}
}

func (a *app) encodeCmd() *cobra.Command {
	return a.codeCmd(pastemagic.OperationEncode, "Encode text in one format or through an encoding chain")
}

func (a *app) decodeCmd() *cobra.Command {
	return a.codeCmd(pastemagic.OperationDecode, "Decode text from one format or through an encoding chain")
}

func (a *app) codeCmd(op pastemagic.Operation, short string) *cobra.Command {
	var format string
	var chain []string

	c := &cobra.Command{
		Use:   string(op) + " [text]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}

			res := &codeResult{Operation: string(op)}
			if len(chain) > 0 {
				encs, err := pastemagic.ParseEncodings(chain)
				if err != nil {
					return err
				}
				res.Format = chainString(encs)
				res.Output, err = runChain(op, s, encs)
				if err != nil {
					return err
				}
				return a.print(cmd, res)
			}

			t, err := pastemagic.TranscoderFor(pastemagic.TextFormat(strings.ToLower(format)))
			if err != nil {
				return err
			}
			res.Format = string(t.Format())
			if op == pastemagic.OperationEncode {
				res.Output, err = t.Encode(s)
			} else {
				res.Output, err = t.Decode(strings.TrimSpace(s))
			}
			if err != nil {
				return err
			}
			return a.print(cmd, res)
		},
	}

	c.Flags().StringVar(&format, "format", string(pastemagic.FormatBase64), "text format: base64|hex|url|unicode|ascii|utf8-bytes")
	c.Flags().StringSliceVar(&chain, "chain", nil, "encoding chain, outermost first: UTF8|HEX|BASE64|BASE64_URLSAFE")
	return c
}

func runChain(op pastemagic.Operation, s string, chain []pastemagic.Encoding) (string, error) {
	if op == pastemagic.OperationEncode {
		return pastemagic.EncodeChain([]byte(s), chain)
	}
	raw, err := pastemagic.DecodeChain(strings.TrimSpace(s), chain)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: result is binary, end the chain with HEX or BASE64", pastemagic.ErrDecode)
	}
	return string(raw), nil
}

func (a *app) hashCmd() *cobra.Command {
	var algos []string

	c := &cobra.Command{
		Use:   "hash [text]",
		Short: "Hash text with message digests or password hashes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			selected := make([]pastemagic.HashAlgo, 0, len(algos))
			for _, name := range algos {
				selected = append(selected, pastemagic.HashAlgo(strings.ToLower(strings.TrimSpace(name))))
			}
			sums, err := pastemagic.HashText(s, selected...)
			if err != nil {
				return err
			}
			return a.print(cmd, &hashResult{Input: s, Sums: sums})
		},
	}

	c.Flags().StringSliceVar(&algos, "algo", nil, "algorithms (default every digest): md5|sha1|sha256|sha512|sha3-256|sm3|argon2|bcrypt")
	return c
}

func (a *app) cronCmd() *cobra.Command {
	var runs int

	c := &cobra.Command{
		Use:   "cron <expression>",
		Short: "List the next fire times of a cron expression",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}
			return a.runCron(cmd, s, runs)
		},
	}

	c.Flags().IntVarP(&runs, "runs", "n", 0, "number of fire times (default from config)")
	return c
}

func (a *app) runCron(cmd *cobra.Command, expr string, runs int) error {
	loc, err := a.location()
	if err != nil {
		return err
	}
	if runs <= 0 {
		runs = a.cfg.Time.CronRuns
	}
	sched, err := pastemagic.NextRuns(expr, a.now().In(loc), runs)
	if err != nil {
		return err
	}
	return a.print(cmd, &cronResult{CronSchedule: *sched, Location: loc.String()})
}

func (a *app) timeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "time [timestamp|date]",
		Short: "Convert between timestamps and dates",
		Long: `Reads a 10 digit (seconds) or 13 digit (milliseconds) timestamp, or a date
string, and shows both forms. The current time is always shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			return a.runTime(cmd, s)
		},
	}
}

func (a *app) runTime(cmd *cobra.Command, s string) error {
	loc, err := a.location()
	if err != nil {
		return err
	}
	res := &timeResult{Now: pastemagic.Now(a.now().In(loc))}
	if strings.TrimSpace(s) != "" {
		res.Parsed, err = pastemagic.ParseTime(s, loc)
		if err != nil {
			return err
		}
	}
	return a.print(cmd, res)
}

var jsonTargets = map[string]func() pastemagic.Codec{
	"yaml":    yaml.New,
	"msgpack": msgpack.New,
	"bson":    bson.New,
}

func (a *app) jsonCmd() *cobra.Command {
	var minify bool
	var to string

	c := &cobra.Command{
		Use:   "json [document]",
		Short: "Format, minify or convert a JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}
			if !pastemagic.IsJSONDocument(s) {
				return fmt.Errorf("%w: expected a JSON object or array", pastemagic.ErrInvalidInput)
			}
			return a.runJSON(cmd, s, minify, to)
		},
	}

	c.Flags().BoolVar(&minify, "minify", false, "remove insignificant whitespace")
	c.Flags().StringVar(&to, "to", "", "convert to yaml|msgpack|bson (binary output is base64)")
	return c
}

func (a *app) runJSON(cmd *cobra.Command, s string, minify bool, to string) error {
	res := &jsonResult{Mode: "format"}
	var err error

	switch {
	case to != "":
		newCodec, ok := jsonTargets[strings.ToLower(to)]
		if !ok {
			return fmt.Errorf("%w: cannot convert json to %q", pastemagic.ErrUnsupportedFormat, to)
		}
		res.Mode = strings.ToLower(to)
		var out []byte
		if out, err = pastemagic.ConvertJSON(s, newCodec()); err == nil {
			if res.Mode == "yaml" {
				res.Output = string(out)
			} else {
				res.Output, err = pastemagic.EncodeChain(out, []pastemagic.Encoding{pastemagic.EncodingBase64})
			}
		}
	case minify:
		res.Mode = "minify"
		res.Output, err = pastemagic.MinifyJSON(s)
	default:
		res.Output, err = pastemagic.FormatJSON(s)
	}

	var syntaxErr *pastemagic.JSONError
	if errors.As(err, &syntaxErr) {
		res.Output = ""
		res.Error = syntaxErr
		if perr := a.print(cmd, res); perr != nil {
			return perr
		}
		return err
	}
	if err != nil {
		return err
	}
	return a.print(cmd, res)
}

func (a *app) urlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url [text]",
		Short: "Decode and re-encode URL, base64 or hex text",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}
			insp, err := pastemagic.InspectURL(s)
			if err != nil {
				return err
			}
			return a.print(cmd, &urlResult{URLInspection: *insp})
		},
	}
}
