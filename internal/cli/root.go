package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"voice-timelog-go/internal/app"
	"voice-timelog-go/internal/config"
)

type Dependencies struct {
	App    *app.App
	Config *config.Config
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "voicelog",
		Short:         "Turn voice memos about meetings into a time log",
		Long:          "Transcribes a recorded meeting memo, extracts customer, date and duration, appends it to a spreadsheet and notifies by email or chat.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewProcessCmd(deps))
	rootCmd.AddCommand(NewReportCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
