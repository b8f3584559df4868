package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_WritesServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	New("acl").Info("cascade over %d nodes", 3)

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "acl")
	assert.Contains(t, out, "cascade over 3 nodes")
	assert.Contains(t, out, "logger_test.go")
}

func TestLogger_ErrorWraps(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	base := errors.New("boom")
	err := New("db").Error("query folders", base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "query folders: boom", err.Error())
	assert.Contains(t, buf.String(), "ERROR")
}

func TestLogger_DebugGated(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	l := New("x").Named("y")
	SetDebug(false)
	l.Debug("hidden")
	assert.Empty(t, buf.String())

	SetDebug(true)
	defer SetDebug(false)
	l.Debug("shown")
	assert.Contains(t, buf.String(), "x.y")
}
