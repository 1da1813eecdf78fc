// Package emit writes assembled Records to their configured sinks: a
// required NDJSON stream (file or stdout) and an optional NATS fan-out,
// mirroring the way the teacher's link verification service treats its
// cache/event bus as an auxiliary, non-fatal sink.
package emit

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/inful/adl-diff-miner/internal/foundation/errors"
	"github.com/inful/adl-diff-miner/internal/record"
)

// Sink accepts Records one at a time and can be asked to flush and close.
type Sink interface {
	Emit(rec record.Record) error
	Close() error
}

// NDJSONSink writes one JSON object per line to an underlying writer,
// flushing after every record so a crash mid-run never loses a record that
// was already reported as emitted.
type NDJSONSink struct {
	w       *bufio.Writer
	closer  io.Closer // nil for stdout, non-nil for an owned file handle
	encoder *json.Encoder
}

// NewNDJSONSink wraps w (and, if non-nil, closer) as an NDJSON sink. Pass a
// nil closer when w is stdout or another writer the caller owns.
func NewNDJSONSink(w io.Writer, closer io.Closer) *NDJSONSink {
	bw := bufio.NewWriter(w)
	return &NDJSONSink{
		w:       bw,
		closer:  closer,
		encoder: json.NewEncoder(bw),
	}
}

// Emit writes rec as a single NDJSON line and flushes immediately.
func (s *NDJSONSink) Emit(rec record.Record) error {
	if err := s.encoder.Encode(rec); err != nil {
		return errors.WrapError(err, errors.CategoryCodec, "failed to encode record as NDJSON").
			WithContext("commit", rec.Commit.Hash).
			Build()
	}
	if err := s.w.Flush(); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to flush NDJSON sink").Build()
	}
	return nil
}

// Close flushes any buffered bytes and closes the underlying file, if owned.
func (s *NDJSONSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to flush NDJSON sink on close").Build()
	}
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to close NDJSON sink").Build()
	}
	return nil
}
