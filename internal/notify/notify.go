package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/types"
)

// Channel delivers meeting fields to one destination. Send never returns an
// error: failures are reported in the result.
type Channel interface {
	Name() string
	Send(ctx context.Context, fields types.Fields) types.ChannelResult
}

// Fanout sends to every configured channel concurrently.
type Fanout struct {
	channels []Channel
	log      *logrus.Entry
}

func NewFanout(log *logrus.Entry, channels ...Channel) *Fanout {
	return &Fanout{channels: channels, log: log.WithField("module", "notify")}
}

// FromConfig builds a fanout holding only the enabled channels.
func FromConfig(cfg config.NotificationConfig, log *logrus.Entry) *Fanout {
	var channels []Channel
	if cfg.Email.Enabled {
		channels = append(channels, NewEmailChannel(cfg.Email, NewSMTPSender(cfg.Email), log))
	}
	if cfg.Chat.Enabled {
		channels = append(channels, NewChatChannel(cfg.Chat, log))
	}
	return NewFanout(log, channels...)
}

// Enabled is the number of channels the fanout will try.
func (f *Fanout) Enabled() int {
	return len(f.channels)
}

// Dispatch waits for every channel and returns the aggregate status together
// with the per-channel results in channel order.
func (f *Fanout) Dispatch(ctx context.Context, fields types.Fields) (types.NotificationStatus, []types.ChannelResult) {
	results := make([]types.ChannelResult, len(f.channels))

	var g errgroup.Group
	for i, ch := range f.channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = safeSend(ctx, ch, fields)
			return nil
		})
	}
	_ = g.Wait()

	status := Aggregate(results)
	f.log.WithFields(logrus.Fields{
		"channels": len(results),
		"status":   status,
	}).Info("notification dispatch finished")
	return status, results
}

func safeSend(ctx context.Context, ch Channel, fields types.Fields) (res types.ChannelResult) {
	defer func() {
		if r := recover(); r != nil {
			res = types.ChannelResult{Channel: ch.Name(), Status: types.ChannelFailed, Detail: fmt.Sprintf("panic: %v", r)}
		}
	}()
	res = ch.Send(ctx, fields)
	if res.Channel == "" {
		res.Channel = ch.Name()
	}
	return res
}

// Aggregate folds channel outcomes into one notification status. Skipped
// channels neither help nor hurt; with nothing attempted the stage is skipped.
func Aggregate(results []types.ChannelResult) types.NotificationStatus {
	var sent, failed int
	for _, r := range results {
		switch r.Status {
		case types.ChannelSent:
			sent++
		case types.ChannelFailed:
			failed++
		}
	}
	switch {
	case sent > 0 && failed == 0:
		return types.NotificationSent
	case sent > 0:
		return types.NotificationPartial
	case failed > 0:
		return types.NotificationFailed
	}
	return types.NotificationSkipped
}
