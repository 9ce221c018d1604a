package dlq

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
)

// Stages that can record failures
const (
	StageGenerate = "generate"
	StageRefine   = "refine"
)

// Entry is one failed unit of work: an anchor commit during generation or a
// pair during refinement.
type Entry struct {
	Stage        string    `json:"stage"`
	Commit       string    `json:"commit"`
	TestCommit   string    `json:"test_commit,omitempty"`
	Path         string    `json:"path,omitempty"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	RunID        string    `json:"run_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Queue appends failures to a JSON Lines file
type Queue struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	enc    *json.Encoder
	runID  string
	count  int
	logger logrus.FieldLogger
}

// Open opens path for appending. Entries carry runID.
func Open(path, runID string, logger logrus.FieldLogger) (*Queue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "create failure log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "open failure log %s", path)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Queue{
		path:   path,
		file:   f,
		enc:    json.NewEncoder(f),
		runID:  runID,
		logger: logger.WithField("component", "dlq"),
	}, nil
}

// Enqueue records a failure. A nil queue discards it.
func (q *Queue) Enqueue(ctx context.Context, e Entry, cause error) error {
	if q == nil {
		return nil
	}
	if cause != nil {
		e.ErrorType = errors.GetType(cause).String()
		e.ErrorMessage = cause.Error()
	}
	if e.RunID == "" {
		e.RunID = q.runID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.enc.Encode(e); err != nil {
		return errors.FileSystemErrorf(err, "write failure log %s", q.path)
	}
	q.count++

	q.logger.WithFields(logrus.Fields{
		"stage":  e.Stage,
		"commit": e.Commit,
		"error":  e.ErrorMessage,
	}).Debug("failure recorded")
	return nil
}

// Len returns the number of entries written through q
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Close closes the file. A nil queue is a no-op.
func (q *Queue) Close() error {
	if q == nil {
		return nil
	}
	return q.file.Close()
}

// Read loads every entry of a failure log
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "open failure log %s", path)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, errors.ValidationErrorf("%s:%d: invalid entry: %v", path, line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.FileSystemErrorf(err, "read failure log %s", path)
	}
	return entries, nil
}

// Commits returns the distinct commits recorded for stage, in log order.
// Generation failures yield anchors to retry.
func Commits(entries []Entry, stage string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.Stage != stage || seen[e.Commit] {
			continue
		}
		seen[e.Commit] = true
		out = append(out, e.Commit)
	}
	return out
}
