package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"voice-timelog-go/internal/config"
)

func check(w io.Writer, name string, ok bool, detail string) {
	mark := "ok"
	if !ok {
		mark = "!!"
	}
	fmt.Fprintf(w, "[%s] %-22s %s\n", mark, name, detail)
}

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cfg := deps.Config

			if err := cfg.Validate(); err != nil {
				check(w, "Settings", false, err.Error())
			} else {
				check(w, "Settings", true, "valid")
			}

			check(w, "Transcription", true, providerDetail(cfg.Transcribe.Provider, cfg.Transcribe.Model))
			check(w, "Extraction", true, providerDetail(cfg.Extract.Provider, cfg.Extract.Model))

			if _, err := os.Stat(cfg.Storage.WorkbookPath); err == nil {
				check(w, "Workbook", true, cfg.Storage.WorkbookPath)
			} else if cfg.Storage.CreateIfMissing {
				check(w, "Workbook", true, cfg.Storage.WorkbookPath+" (created on first write)")
			} else {
				check(w, "Workbook", false, cfg.Storage.WorkbookPath+" does not exist")
			}

			email := cfg.Notification.Email
			switch {
			case !email.Enabled:
				check(w, "Email notifications", true, "disabled")
			case email.Host == "" || email.Sender == "" || email.Password == "" || len(email.Recipients) == 0:
				check(w, "Email notifications", false, "enabled but SMTP settings or recipients are missing")
			default:
				check(w, "Email notifications", true, fmt.Sprintf("%s:%d, %d recipient(s)", email.Host, email.Port, len(email.Recipients)))
			}

			chat := cfg.Notification.Chat
			switch {
			case !chat.Enabled:
				check(w, "Chat notifications", true, "disabled")
			case chat.WebhookURL == "":
				check(w, "Chat notifications", false, "enabled but SLACK_WEBHOOK_URL is not set")
			default:
				check(w, "Chat notifications", true, "webhook configured")
			}
			return nil
		},
	}
}

func providerDetail(provider, model string) string {
	if provider == config.ProviderMock {
		return "mock"
	}
	return provider + " / " + model
}
