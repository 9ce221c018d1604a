package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchByType(t *testing.T) {
	err := MissingCommitf("commit %s not found", "abc123")
	assert.True(t, stderrors.Is(err, ErrMissingCommit))
	assert.False(t, stderrors.Is(err, ErrMissingContent))

	wrapped := fmt.Errorf("window query: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrMissingCommit))
}

func TestOracleErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := OracleErrorf(cause, "gumtree textdiff")

	assert.True(t, stderrors.Is(err, ErrOracleInvocation))
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Equal(t, "gumtree textdiff: exit status 1", err.Error())
	assert.False(t, err.IsFatal())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(RepositoryError(fmt.Errorf("no .git"), "open repository")))
	assert.False(t, IsFatal(MissingContentf("gone")))
	assert.False(t, IsFatal(fmt.Errorf("plain")))
	assert.False(t, IsFatal(nil))
}

func TestGetSeverity(t *testing.T) {
	assert.Equal(t, SeverityMedium, GetSeverity(OracleErrorf(nil, "timed out")))
	assert.Equal(t, SeverityCritical, GetSeverity(RepositoryError(fmt.Errorf("no .git"), "open repository")))
	assert.Equal(t, SeverityMedium, GetSeverity(fmt.Errorf("plain")))
	assert.Equal(t, SeverityLow, GetSeverity(nil))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeDatabase, SeverityHigh, "noop"))
}

func TestDetailedString(t *testing.T) {
	err := MissingContentf("content missing").WithContext("path", "src/main/java/A.java")
	out := err.DetailedString()
	assert.Contains(t, out, "[LOW] [MISSING_CONTENT] content missing")
	assert.Contains(t, out, "path: src/main/java/A.java")
}
