package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"

	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/types"
)

const notProvided = "Not provided"

// Sender puts one message on the wire.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// SMTPSender dials the configured server for every message.
type SMTPSender struct {
	cfg config.EmailConfig
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Sender),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("smtp client: %w", err))
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// EmailChannel sends an HTML summary to the configured recipients.
type EmailChannel struct {
	cfg    config.EmailConfig
	sender Sender
	log    *logrus.Entry
}

func NewEmailChannel(cfg config.EmailConfig, sender Sender, log *logrus.Entry) *EmailChannel {
	return &EmailChannel{cfg: cfg, sender: sender, log: log.WithField("channel", "email")}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, fields types.Fields) types.ChannelResult {
	res := types.ChannelResult{Channel: c.Name()}
	if missing := c.missingSettings(); len(missing) > 0 {
		res.Status = types.ChannelSkipped
		res.Detail = "email not configured: missing " + strings.Join(missing, ", ")
		c.log.Warn(res.Detail)
		return res
	}

	msg, err := c.buildMessage(fields)
	if err != nil {
		res.Status = types.ChannelFailed
		res.Detail = "build message: " + err.Error()
		c.log.WithError(err).Error("email message construction failed")
		return res
	}

	attempts := c.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	op := func() error {
		res.Attempts++
		err := c.sender.Send(ctx, msg)
		if err != nil {
			lastErr = err
			c.log.WithError(err).WithField("attempt", res.Attempts).Warn("email send failed")
		}
		return err
	}
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryDelay), uint64(attempts-1))
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		res.Status = types.ChannelFailed
		res.Detail = fmt.Sprintf("send failed after %d attempt(s): %v", res.Attempts, lastErr)
		return res
	}

	res.Status = types.ChannelSent
	res.Detail = fmt.Sprintf("sent to %d recipient(s)", len(c.cfg.Recipients))
	c.log.WithField("attempts", res.Attempts).Info("email notification sent")
	return res
}

func (c *EmailChannel) missingSettings() []string {
	var missing []string
	if c.cfg.Host == "" {
		missing = append(missing, "smtp server")
	}
	if c.cfg.Sender == "" {
		missing = append(missing, "sender")
	}
	if c.cfg.Password == "" {
		missing = append(missing, "password")
	}
	if len(c.cfg.Recipients) == 0 {
		missing = append(missing, "recipients")
	}
	return missing
}

func (c *EmailChannel) buildMessage(fields types.Fields) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(c.cfg.Sender); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(c.cfg.Recipients...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(Subject(fields))

	html, err := renderEmail(fields)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextHTML, html)
	msg.AddAlternativeString(mail.TypeTextPlain, PlainText(fields))
	return msg, nil
}

// Subject is the email subject for a logged meeting.
func Subject(fields types.Fields) string {
	return fmt.Sprintf("New Meeting Log: %s on %s",
		types.Value(fields.CustomerName, "Unknown customer"),
		types.Value(fields.MeetingDate, "unknown date"))
}

var emailTemplate = template.Must(template.New("email").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<h2>New Meeting Log</h2>
<p>A new meeting has been logged{{if .Timestamp}} at {{.Timestamp}}{{end}}.</p>
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse: collapse;">
{{range .Rows}}<tr><th align="left" style="background-color: #f2f2f2;">{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
</body>
</html>`))

type emailRow struct {
	Label string
	Value string
}

func summaryRows(fields types.Fields) []emailRow {
	return []emailRow{
		{"Customer", types.Value(fields.CustomerName, notProvided)},
		{"Date", types.Value(fields.MeetingDate, notProvided)},
		{"Start Time", types.Value(fields.StartTime, notProvided)},
		{"End Time", types.Value(fields.EndTime, notProvided)},
		{"Total Hours", types.Value(fields.TotalHours, notProvided)},
		{"Notes", types.Value(fields.Notes, notProvided)},
	}
}

func renderEmail(fields types.Fields) (string, error) {
	var b bytes.Buffer
	err := emailTemplate.Execute(&b, struct {
		Timestamp string
		Rows      []emailRow
	}{
		Timestamp: time.Now().Format(types.TimestampLayout),
		Rows:      summaryRows(fields),
	})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return b.String(), nil
}

// PlainText is the text rendering shared by the email alternative part and
// the chat message.
func PlainText(fields types.Fields) string {
	var b strings.Builder
	b.WriteString("New Meeting Log\n")
	for _, r := range summaryRows(fields) {
		fmt.Fprintf(&b, "%s: %s\n", r.Label, r.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}
