package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
)

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [text]",
		Short: "Detect what the text is and run the matching tool",
		Long: `Detects the kind of the input and runs its tool:

  empty input          public IP of this host
  IP address, subnet   ip
  domain               dns
  cron expression      cron
  timestamp, date      time
  JSON object, array   json
  URL                  url
  anything else        transcode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			kind := pastemagic.DetectContext(cmd.Context(), s)
			a.logger.Debug("inspect", zap.String("kind", string(kind)), zap.Int("size", len(s)))
			return a.dispatch(cmd, kind, s)
		},
	}
}

func (a *app) dispatch(cmd *cobra.Command, kind pastemagic.Kind, s string) error {
	switch {
	case kind == pastemagic.KindEmpty:
		return a.runMyIP(cmd, false)
	case kind.IsNetwork():
		return a.runIP(cmd, s, false)
	case kind == pastemagic.KindDomain:
		return a.runDNS(cmd, s)
	case kind == pastemagic.KindCron:
		return a.runCron(cmd, s, 0)
	case kind == pastemagic.KindTimestamp, kind == pastemagic.KindDateTime:
		return a.runTime(cmd, s)
	case kind == pastemagic.KindJSON && pastemagic.IsJSONDocument(s):
		return a.runJSON(cmd, s, false, "")
	case kind == pastemagic.KindURL:
		insp, err := pastemagic.InspectURL(s)
		if err != nil {
			return err
		}
		return a.print(cmd, &urlResult{URLInspection: *insp})
	default:
		return a.print(cmd, &transcodeResult{TranscodeReport: *pastemagic.Transcode(s)})
	}
}
