// Package events publishes scoring results to NATS for the score
// accumulator and any other listener.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/susu3304/globeguess/internal/game"
	"github.com/susu3304/globeguess/internal/location"
)

const (
	guessSubject = "geoquiz.guess."
	roundSubject = "geoquiz.round."
)

// GuessSubject is the subject a guess in region is published on.
func GuessSubject(r location.Region) string { return guessSubject + r.String() }

// RoundSubject is the subject a finished game in region is published on.
func RoundSubject(r location.Region) string { return roundSubject + r.String() }

type publisher interface {
	Publish(subj string, data []byte) error
}

// Publisher implements game.Sink on a plain NATS connection.
type Publisher struct {
	conn *nats.Conn
	pub  publisher
}

// NewPublisher connects to NATS. The connection keeps retrying in the
// background, so a broker that is down at startup does not stop the service.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("globeguess"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn, pub: conn}, nil
}

func (p *Publisher) GuessScored(ctx context.Context, ev game.GuessEvent) error {
	return p.publish(ctx, GuessSubject(ev.Region), ev)
}

func (p *Publisher) RoundFinished(ctx context.Context, summary game.RoundSummary) error {
	return p.publish(ctx, RoundSubject(summary.Region), summary)
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Connected reports whether the broker is currently reachable.
func (p *Publisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// Noop discards every event. It is used when no broker is configured.
type Noop = game.NopSink
