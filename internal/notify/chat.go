package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/types"
)

// ChatChannel posts to a Slack-compatible incoming webhook.
type ChatChannel struct {
	webhookURL string
	httpClient *http.Client
	retries    uint64
	log        *logrus.Entry
}

func NewChatChannel(cfg config.ChatConfig, log *logrus.Entry) *ChatChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChatChannel{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		retries:    2,
		log:        log.WithField("channel", "chat"),
	}
}

func (c *ChatChannel) Name() string { return "chat" }

func (c *ChatChannel) Send(ctx context.Context, fields types.Fields) types.ChannelResult {
	res := types.ChannelResult{Channel: c.Name()}
	if c.webhookURL == "" {
		res.Status = types.ChannelSkipped
		res.Detail = "chat not configured: missing webhook url"
		c.log.Warn(res.Detail)
		return res
	}

	payload, err := json.Marshal(map[string]string{"text": PlainText(fields)})
	if err != nil {
		res.Status = types.ChannelFailed
		res.Detail = "encode payload: " + err.Error()
		return res
	}

	var lastErr error
	op := func() error {
		res.Attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("webhook server error %d: %s", resp.StatusCode, body)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("webhook rejected message %d: %s", resp.StatusCode, body)
			return backoff.Permanent(lastErr)
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		res.Status = types.ChannelFailed
		res.Detail = lastErr.Error()
		c.log.WithError(lastErr).Error("chat notification failed")
		return res
	}
	res.Status = types.ChannelSent
	res.Detail = "posted to webhook"
	c.log.Info("chat notification sent")
	return res
}
