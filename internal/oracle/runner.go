package oracle

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/ptmine/internal/errors"
)

// DefaultTimeout bounds a single oracle invocation
const DefaultTimeout = 5 * time.Minute

// maxStderr caps how much tool output is attached to an error
const maxStderr = 2048

// Runner executes external analysis tools with a per-call timeout and an
// optional global throttle. Calls are never retried.
type Runner struct {
	timeout time.Duration
	limiter *rate.Limiter
	logger  logrus.FieldLogger
}

// NewRunner creates a runner. ratePerSecond <= 0 disables throttling.
func NewRunner(timeout time.Duration, ratePerSecond float64, logger logrus.FieldLogger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := &Runner{timeout: timeout, logger: logger}
	if ratePerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return r
}

// Run executes command with args appended and returns stdout. A non-zero
// exit or a timeout yields an ErrorTypeOracle error carrying stderr.
func (r *Runner) Run(ctx context.Context, command []string, args ...string) ([]byte, error) {
	if len(command) == 0 {
		return nil, errors.OracleErrorf(nil, "no oracle command configured")
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, errors.OracleErrorf(err, "rate limiter")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	argv := append(append([]string{}, command[1:]...), args...)
	cmd := exec.CommandContext(ctx, command[0], argv...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	log := r.logger.WithFields(logrus.Fields{
		"oracle":   command[0],
		"duration": elapsed.Round(time.Millisecond),
	})

	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("oracle timed out")
			return nil, errors.OracleErrorf(ctx.Err(), "%s timed out after %s", command[0], r.timeout).
				WithContext("args", strings.Join(argv, " "))
		}
		log.WithField("stderr", truncate(stderr.String())).Warn("oracle failed")
		return nil, errors.OracleErrorf(err, "%s failed", command[0]).
			WithContext("args", strings.Join(argv, " ")).
			WithContext("stderr", truncate(stderr.String()))
	}

	log.Debug("oracle finished")
	return stdout.Bytes(), nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[:maxStderr] + "..."
	}
	return s
}

// ParseCommand splits a configured command line on whitespace
func ParseCommand(line string) []string {
	return strings.Fields(line)
}
