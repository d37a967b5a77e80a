// Package events publishes unresolved internal links to NATS
// JetStream so downstream tooling can open migration issues for them.
// The sink is best effort: a build never fails because the broker is
// away.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/alexeyismirnov/deep-crawl/internal/config"
	enginerrors "github.com/alexeyismirnov/deep-crawl/internal/errors"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/retry"
)

// UnresolvedLinkEvent is one in-scope link the rewriter could not map
// to a canonical path.
type UnresolvedLinkEvent struct {
	URL        string    `json:"url"`         // Absolute URL the target resolved to
	RawTarget  string    `json:"raw_target"`  // Target exactly as written in the source document
	SourceURL  string    `json:"source_url"`  // Normalized URL of the containing document
	SourcePath string    `json:"source_path"` // Canonical path the containing document was emitted under
	Category   string    `json:"category"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers events to one JetStream subject.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// Connect dials the broker and sets up a JetStream context. Dial
// failures retry with backoff before the error surfaces, so a broker
// that is just restarting does not cost the run its events.
func Connect(cfg config.EventsConfig) (*Publisher, error) {
	policy := retry.DefaultPolicy()

	var conn *nats.Conn
	var err error
	for attempt := 0; ; attempt++ {
		conn, err = nats.Connect(cfg.URL)
		if err == nil {
			break
		}
		if attempt >= policy.MaxRetries {
			return nil, enginerrors.EventsError(cfg.Subject, err)
		}
		delay := policy.Delay(attempt + 1)
		slog.Debug("Broker dial failed, retrying",
			logfields.URL(cfg.URL),
			logfields.Error(err),
			logfields.Duration(delay))
		time.Sleep(delay)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, enginerrors.EventsError(cfg.Subject, err)
	}

	slog.Info("Event publisher connected", logfields.URL(cfg.URL), logfields.Subject(cfg.Subject))
	return &Publisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// Publish sends one event, stamping the time if the caller did not.
func (p *Publisher) Publish(event *UnresolvedLinkEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return enginerrors.EventsError(p.subject, err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return enginerrors.EventsError(p.subject, err)
	}

	slog.Debug("Published unresolved link event",
		logfields.URL(event.URL),
		logfields.Path(event.SourcePath),
		logfields.RunID(event.RunID))
	return nil
}

func (p *Publisher) Close() {
	p.conn.Close()
}
