package emit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/inful/adl-diff-miner/internal/logfields"
	"github.com/inful/adl-diff-miner/internal/record"
)

// NATSSink publishes each Record's JSON encoding to a NATS subject through
// JetStream. There is no core-NATS publish path: on a server without
// JetStream every publish fails and is logged. A failed connect or publish is
// logged as a warning and never fails the run; the NDJSON sink stays
// authoritative.
type NATSSink struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	mu      sync.Mutex
}

// NewNATSSink connects to url and prepares to publish to subject. Connection
// failure is non-fatal: the returned sink then silently no-ops on every Emit
// and no further connection attempt is made (the reconnect options only cover
// a connection that was once established), matching the link-verification
// client's posture of never blocking the primary pipeline on a broker outage.
func NewNATSSink(url, subject string) *NATSSink {
	s := &NATSSink{subject: subject}
	if err := s.connect(url); err != nil {
		slog.Warn("initial NATS connection failed; records will only reach the primary sink",
			logfields.Error(err))
	}
	return s
}

func (s *NATSSink) connect(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS sink disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS sink reconnected", logfields.Name(nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return err
	}

	s.conn = conn
	s.js = js
	return nil
}

// Emit publishes rec to the configured subject. A publish failure is logged
// and swallowed; it never propagates to the assembler/driver loop.
func (s *NATSSink) Emit(rec record.Record) error {
	s.mu.Lock()
	js := s.js
	subject := s.subject
	s.mu.Unlock()

	if js == nil {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		slog.Warn("failed to marshal record for NATS sink", logfields.Commit(rec.Commit.Hash), logfields.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := js.Publish(ctx, subject, data); err != nil {
		slog.Warn("failed to publish record to NATS", logfields.Commit(rec.Commit.Hash), logfields.Sink(subject), logfields.Error(err))
	}
	return nil
}

// Close drains the connection. Errors are logged, not returned, for the same
// non-fatal-sink reason Emit swallows publish failures.
func (s *NATSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		slog.Warn("failed to drain NATS connection", logfields.Error(err))
	}
	s.conn = nil
	s.js = nil
	return nil
}
