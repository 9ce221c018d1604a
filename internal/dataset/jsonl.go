package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// maxRecordSize bounds a single JSON Lines record. Records embed four full
// file contents, so the default bufio limit is far too small.
const maxRecordSize = 64 << 20

// JSONLWriter appends one JSON object per pair to a file
type JSONLWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
	n    int
}

// OpenJSONL opens path for appending, creating it and its directory if needed
func OpenJSONL(path string) (*JSONLWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.FileSystemErrorf(err, "create dataset directory %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "open dataset %s", path)
	}

	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{path: path, file: f, buf: buf, enc: enc}, nil
}

// Path returns the file being written
func (w *JSONLWriter) Path() string { return w.path }

// Count returns the number of records written through w
func (w *JSONLWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Write appends pair as one line
func (w *JSONLWriter) Write(ctx context.Context, pair models.CandidatePair) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(pair); err != nil {
		return errors.FileSystemErrorf(err, "write record to %s", w.path)
	}
	w.n++
	return nil
}

// Flush pushes buffered records to the file
func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return errors.FileSystemErrorf(err, "flush %s", w.path)
	}
	return nil
}

// Close flushes and closes the file
func (w *JSONLWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Close(); err != nil {
		return errors.FileSystemErrorf(err, "close %s", w.path)
	}
	return nil
}

// ReadJSONL streams the records of a JSON Lines file into fn in file order.
// Blank lines are skipped. A malformed line aborts the read.
func ReadJSONL(ctx context.Context, path string, fn func(models.CandidatePair) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.FileSystemErrorf(err, "open dataset %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), maxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var pair models.CandidatePair
		if err := json.Unmarshal(raw, &pair); err != nil {
			return errors.ValidationErrorf("%s:%d: invalid record: %v", path, line, err)
		}
		if !pair.Tag.Valid() {
			return errors.ValidationErrorf("%s:%d: unknown tag %q", path, line, pair.Tag)
		}
		if err := fn(pair); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.FileSystemErrorf(err, "read dataset %s", path)
	}
	return nil
}

// Source returns a streaming reader over path usable as a refinement source
func Source(path string) func(ctx context.Context, fn func(models.CandidatePair) error) error {
	return func(ctx context.Context, fn func(models.CandidatePair) error) error {
		return ReadJSONL(ctx, path, fn)
	}
}
