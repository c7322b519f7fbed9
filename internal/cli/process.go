package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"voice-timelog-go/internal/processor"
)

func NewProcessCmd(deps *Dependencies) *cobra.Command {
	var opts processor.Options
	var notify, noNotify bool

	cmd := &cobra.Command{
		Use:   "process <audio-file>...",
		Short: "Process recorded memos and print the records as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Notify = deps.Config.Notification.DefaultNotify
			if notify {
				opts.Notify = true
			}
			if noNotify {
				opts.Notify = false
			}
			results := processor.ProcessFiles(cmd.Context(), deps.App.Pipeline, args, opts, deps.App.Log.Entry)
			if err := printJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if n := processor.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d file(s) failed", n, len(results))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.CustomerHint, "customer", "", "customer name hint")
	f.StringVar(&opts.DateHint, "date", "", "meeting date hint")
	f.BoolVar(&notify, "notify", false, "send notifications")
	f.BoolVar(&noNotify, "no-notify", false, "never send notifications")
	f.BoolVar(&opts.SkipDelivery, "dry-run", false, "transcribe and extract only; store and send nothing")
	f.IntVar(&opts.Workers, "workers", 2, "files processed at once")
	cmd.MarkFlagsMutuallyExclusive("notify", "no-notify")
	return cmd
}
