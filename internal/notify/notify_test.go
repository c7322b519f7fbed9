package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wneessen/go-mail"

	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/logger"
	"voice-timelog-go/internal/types"
)

type stubChannel struct {
	name   string
	status types.ChannelStatus
	delay  time.Duration
	panics bool
}

func (s stubChannel) Name() string { return s.name }

func (s stubChannel) Send(ctx context.Context, fields types.Fields) types.ChannelResult {
	if s.panics {
		panic("boom")
	}
	time.Sleep(s.delay)
	return types.ChannelResult{Channel: s.name, Status: s.status, Attempts: 1}
}

type fakeSender struct {
	calls    int32
	failures int32
	subject  string
}

func (f *fakeSender) Send(ctx context.Context, msg *mail.Msg) error {
	n := atomic.AddInt32(&f.calls, 1)
	if subj := msg.GetGenHeader(mail.HeaderSubject); len(subj) > 0 {
		f.subject = subj[0]
	}
	if n <= f.failures {
		return errors.New("connection reset")
	}
	return nil
}

func acme() types.Fields {
	return types.Fields{
		CustomerName: types.Ptr("Acme Corp"),
		MeetingDate:  types.Ptr("2025-03-14"),
		TotalHours:   types.Ptr("1h 30m"),
	}
}

func emailConfig() config.EmailConfig {
	return config.EmailConfig{
		Enabled:     true,
		Host:        "smtp.example.com",
		Port:        587,
		Sender:      "bot@example.com",
		Password:    "secret",
		Recipients:  []string{"ops@example.com"},
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	}
}

func TestAggregate(t *testing.T) {
	r := func(s ...types.ChannelStatus) []types.ChannelResult {
		out := make([]types.ChannelResult, len(s))
		for i, st := range s {
			out[i] = types.ChannelResult{Status: st}
		}
		return out
	}
	cases := []struct {
		name string
		in   []types.ChannelResult
		want types.NotificationStatus
	}{
		{"none", nil, types.NotificationSkipped},
		{"all sent", r(types.ChannelSent, types.ChannelSent), types.NotificationSent},
		{"sent and skipped", r(types.ChannelSent, types.ChannelSkipped), types.NotificationSent},
		{"sent and failed", r(types.ChannelSent, types.ChannelFailed), types.NotificationPartial},
		{"all failed", r(types.ChannelFailed, types.ChannelFailed), types.NotificationFailed},
		{"failed and skipped", r(types.ChannelFailed, types.ChannelSkipped), types.NotificationFailed},
		{"all skipped", r(types.ChannelSkipped), types.NotificationSkipped},
	}
	for _, tc := range cases {
		if got := Aggregate(tc.in); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDispatchKeepsEveryChannelOutcome(t *testing.T) {
	f := NewFanout(logger.Nop().Entry,
		stubChannel{name: "email", status: types.ChannelSent, delay: 20 * time.Millisecond},
		stubChannel{name: "chat", status: types.ChannelFailed},
	)
	status, results := f.Dispatch(context.Background(), acme())
	if status != types.NotificationPartial {
		t.Fatalf("expected partial, got %s", status)
	}
	if len(results) != 2 || results[0].Channel != "email" || results[1].Channel != "chat" {
		t.Fatalf("results lost channel order: %+v", results)
	}
	if results[0].Status != types.ChannelSent || results[1].Status != types.ChannelFailed {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestDispatchRecoversPanickingChannel(t *testing.T) {
	f := NewFanout(logger.Nop().Entry,
		stubChannel{name: "email", status: types.ChannelSent},
		stubChannel{name: "chat", panics: true},
	)
	status, results := f.Dispatch(context.Background(), acme())
	if status != types.NotificationPartial || results[1].Status != types.ChannelFailed {
		t.Fatalf("unexpected outcome %s %+v", status, results)
	}
}

func TestFromConfigOnlyEnabledChannels(t *testing.T) {
	cfg := config.NotificationConfig{Email: emailConfig()}
	if n := FromConfig(cfg, logger.Nop().Entry).Enabled(); n != 1 {
		t.Fatalf("expected 1 channel, got %d", n)
	}
	cfg.Email.Enabled = false
	if n := FromConfig(cfg, logger.Nop().Entry).Enabled(); n != 0 {
		t.Fatalf("expected no channels, got %d", n)
	}
}

func TestEmailRetriesTransportFailures(t *testing.T) {
	sender := &fakeSender{failures: 2}
	res := NewEmailChannel(emailConfig(), sender, logger.Nop().Entry).Send(context.Background(), acme())
	if res.Status != types.ChannelSent || res.Attempts != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if sender.subject != "New Meeting Log: Acme Corp on 2025-03-14" {
		t.Fatalf("unexpected subject %q", sender.subject)
	}
}

func TestEmailGivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{failures: 10}
	res := NewEmailChannel(emailConfig(), sender, logger.Nop().Entry).Send(context.Background(), acme())
	if res.Status != types.ChannelFailed || res.Attempts != 3 || atomic.LoadInt32(&sender.calls) != 3 {
		t.Fatalf("unexpected result %+v after %d calls", res, sender.calls)
	}
}

func TestEmailIncompleteConfigSkipsWithoutSending(t *testing.T) {
	cfg := emailConfig()
	cfg.Recipients = nil
	sender := &fakeSender{}
	res := NewEmailChannel(cfg, sender, logger.Nop().Entry).Send(context.Background(), acme())
	if res.Status != types.ChannelSkipped || res.Attempts != 0 || sender.calls != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Detail, "recipients") {
		t.Fatalf("detail should name the missing setting: %q", res.Detail)
	}
}

func TestEmailBadRecipientIsNotRetried(t *testing.T) {
	cfg := emailConfig()
	cfg.Recipients = []string{"not an address"}
	sender := &fakeSender{}
	res := NewEmailChannel(cfg, sender, logger.Nop().Entry).Send(context.Background(), acme())
	if res.Status != types.ChannelFailed || sender.calls != 0 {
		t.Fatalf("unexpected result %+v with %d sends", res, sender.calls)
	}
}

func TestPlainTextMarksMissingValues(t *testing.T) {
	text := PlainText(acme())
	if !strings.Contains(text, "Customer: Acme Corp") || !strings.Contains(text, "Start Time: Not provided") {
		t.Fatalf("unexpected text:\n%s", text)
	}
}

func TestChatPostsWebhook(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	res := NewChatChannel(config.ChatConfig{WebhookURL: srv.URL}, logger.Nop().Entry).Send(context.Background(), acme())
	if res.Status != types.ChannelSent {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(got["text"], "Acme Corp") {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestChatRejectedIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	res := NewChatChannel(config.ChatConfig{WebhookURL: srv.URL}, logger.Nop().Entry).Send(context.Background(), acme())
	if res.Status != types.ChannelFailed || atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("unexpected result %+v after %d calls", res, calls)
	}
}

func TestChatWithoutWebhookSkips(t *testing.T) {
	res := NewChatChannel(config.ChatConfig{}, logger.Nop().Entry).Send(context.Background(), acme())
	if res.Status != types.ChannelSkipped {
		t.Fatalf("unexpected result %+v", res)
	}
}
