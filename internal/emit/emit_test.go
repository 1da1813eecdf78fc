package emit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/inful/adl-diff-miner/internal/record"
)

func sampleRecord(hash string) record.Record {
	return record.Record{
		Commit: record.CommitRef{Hash: hash, Message: "fix: align queue capacity"},
	}
}

func TestNDJSONSink_WritesOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewNDJSONSink(&buf, nil)

	if err := sink.Emit(sampleRecord("abc123")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := sink.Emit(sampleRecord("def456")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 NDJSON lines, got %d: %q", len(lines), buf.String())
	}

	var r1 record.Record
	if err := json.Unmarshal([]byte(lines[0]), &r1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if r1.Commit.Hash != "abc123" {
		t.Fatalf("expected first record hash abc123, got %q", r1.Commit.Hash)
	}
}

func TestNDJSONSink_FlushesAfterEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewNDJSONSink(&buf, nil)

	if err := sink.Emit(sampleRecord("abc123")); err != nil {
		t.Fatalf("emit: %v", err)
	}

	// Without calling Close, the bytes must already be visible: Emit flushes
	// immediately so a crash mid-run never loses an already-reported record.
	if !strings.Contains(buf.String(), "abc123") {
		t.Fatalf("expected record visible before Close, got %q", buf.String())
	}
}

type failingSink struct{ err error }

func (f failingSink) Emit(record.Record) error { return f.err }
func (f failingSink) Close() error             { return f.err }

type recordingSink struct {
	emitted []record.Record
	closed  bool
}

func (r *recordingSink) Emit(rec record.Record) error { r.emitted = append(r.emitted, rec); return nil }
func (r *recordingSink) Close() error                 { r.closed = true; return nil }

func TestMultiSink_PrimaryFailureAborts(t *testing.T) {
	primary := failingSink{err: errors.New("disk full")}
	aux := &recordingSink{}
	m := NewMultiSink(primary, aux)

	err := m.Emit(sampleRecord("abc123"))

	if err == nil {
		t.Fatalf("expected primary failure to propagate")
	}
}

func TestMultiSink_AuxiliaryFailureIsSwallowed(t *testing.T) {
	primary := &recordingSink{}
	aux := failingSink{err: errors.New("nats unreachable")}
	m := NewMultiSink(primary, aux)

	if err := m.Emit(sampleRecord("abc123")); err != nil {
		t.Fatalf("expected auxiliary failure to be swallowed, got %v", err)
	}
	if len(primary.emitted) != 1 {
		t.Fatalf("expected primary to still receive the record")
	}
}

func TestMultiSink_ClosesAllSinks(t *testing.T) {
	primary := &recordingSink{}
	aux := &recordingSink{}
	m := NewMultiSink(primary, aux)

	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !primary.closed || !aux.closed {
		t.Fatalf("expected both sinks closed, primary=%v aux=%v", primary.closed, aux.closed)
	}
}
