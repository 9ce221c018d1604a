package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var console bytes.Buffer
	l, err := newLogger(Config{Level: "DEBUG", JSONFormat: true}, &console)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("commit", "abc").Debug("hello")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(console.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "abc", entry["commit"])

	_, err = newLogger(Config{Level: "chatty"}, &console)
	assert.Error(t, err)
}

func TestLoggerWritesFileAndRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ptmine.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))
	require.NoError(t, os.WriteFile(path+".1", []byte("older"), 0644))

	var console bytes.Buffer
	l, err := newLogger(Config{OutputFile: path, MaxSize: 32, MaxBackups: 2}, &console)
	require.NoError(t, err)
	l.Info("fresh start")
	require.NoError(t, l.Close())

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), "fresh start")
	assert.Contains(t, console.String(), "fresh start")

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 64), string(backup))

	older, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "older", string(older))
}
