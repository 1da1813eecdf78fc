package emit

import (
	"os"

	"github.com/inful/adl-diff-miner/internal/foundation/errors"
)

// OpenFileSink creates (or truncates) path and returns an NDJSONSink that
// owns the file handle and closes it on Close.
func OpenFileSink(path string) (*NDJSONSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to create output file").
			WithContext("path", path).
			Build()
	}
	return NewNDJSONSink(f, f), nil
}

// StdoutSink returns an NDJSONSink writing to os.Stdout. Stdout is never
// closed by the sink; Close only flushes.
func StdoutSink() *NDJSONSink {
	return NewNDJSONSink(os.Stdout, nil)
}
