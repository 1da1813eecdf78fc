package emit

import (
	"log/slog"

	"github.com/inful/adl-diff-miner/internal/logfields"
	"github.com/inful/adl-diff-miner/internal/record"
)

// MultiSink fans a Record out to one authoritative primary sink and any
// number of auxiliary sinks. A primary failure aborts the emit; an auxiliary
// failure is logged and otherwise ignored.
type MultiSink struct {
	primary Sink
	aux     []Sink
}

// NewMultiSink builds a MultiSink. primary must be non-nil; aux may be empty.
func NewMultiSink(primary Sink, aux ...Sink) *MultiSink {
	return &MultiSink{primary: primary, aux: aux}
}

// Emit writes rec to the primary sink, returning its error if any, then
// best-effort writes to every auxiliary sink.
func (m *MultiSink) Emit(rec record.Record) error {
	if err := m.primary.Emit(rec); err != nil {
		return err
	}
	for _, s := range m.aux {
		if err := s.Emit(rec); err != nil {
			slog.Warn("auxiliary sink failed to emit record", logfields.Commit(rec.Commit.Hash), logfields.Error(err))
		}
	}
	return nil
}

// Close closes the primary sink and every auxiliary sink, collecting the
// primary's error (if any) as the return value.
func (m *MultiSink) Close() error {
	var primaryErr error
	if err := m.primary.Close(); err != nil {
		primaryErr = err
	}
	for _, s := range m.aux {
		if err := s.Close(); err != nil {
			slog.Warn("auxiliary sink failed to close", logfields.Error(err))
		}
	}
	return primaryErr
}
