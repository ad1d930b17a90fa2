package bot

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
)

const expiredMessage = "⌛ The round in this channel was closed after a long time without an answer\nStart a new one with `/guess start`"

// expiryWorker periodically closes guess rounds nobody revealed.
type expiryWorker struct {
	sessions sessionExpirer
	session  messageSender
	maxAge   time.Duration
	now      func() time.Time
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration
}

type sessionExpirer interface {
	ExpireSessions(ctx context.Context, before time.Time) ([]string, error)
}

// Minimal session interface for sending channel messages.
type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func newExpiryWorker(session messageSender, sessions sessionExpirer, maxAge time.Duration) *expiryWorker {
	return &expiryWorker{
		sessions: sessions,
		session:  session,
		maxAge:   maxAge,
		now:      time.Now,
		stopChan: make(chan struct{}),
		interval: 5 * time.Minute,
	}
}

func (w *expiryWorker) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *expiryWorker) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *expiryWorker) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

// tick returns the number of channels that were notified.
func (w *expiryWorker) tick(ctx context.Context) int {
	channels, err := w.sessions.ExpireSessions(ctx, w.now().Add(-w.maxAge))
	if err != nil {
		slog.Error("expiry: failed to close stale rounds", "error", err)
		return 0
	}

	sent := 0
	for _, channelID := range channels {
		if err := w.sendWithRetry(ctx, channelID, expiredMessage); err != nil {
			// the round is closed either way
			slog.Warn("expiry: failed to notify channel", "channel_id", channelID, "error", err)
			continue
		}
		sent++
	}
	if len(channels) > 0 {
		slog.Info("expiry: closed stale rounds", "closed", len(channels), "notified", sent)
	}
	return sent
}

func (w *expiryWorker) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := w.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		time.Sleep(time.Duration(300+rand.IntN(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
