package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"kobuki-controller/kobuki"
)

func newObservedLogger(level LogLevel) (*LeveledLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLeveledLoggerWithCore(core, level), logs
}

func testLogger() *LeveledLogger {
	return NewLeveledLoggerWithCore(zapcore.NewNopCore(), LogLevelDebug)
}

func TestLeveledLogger_Filtering(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected []string
	}{
		{LogLevelNone, nil},
		{LogLevelError, []string{"error 4"}},
		{LogLevelWarn, []string{"warn 3", "error 4"}},
		{LogLevelInfo, []string{"info 2", "warn 3", "error 4", "printf 5"}},
		{LogLevelDebug, []string{"debug 1", "info 2", "warn 3", "error 4", "printf 5"}},
	}

	for _, tt := range tests {
		l, logs := newObservedLogger(tt.level)
		l.Debug("debug %d", 1)
		l.Info("info %d", 2)
		l.Warn("warn %d", 3)
		l.Error("error %d", 4)
		l.Printf("printf %d", 5)

		var got []string
		for _, e := range logs.All() {
			got = append(got, e.Message)
		}
		assert.Equal(t, tt.expected, got, "level %d", tt.level)
	}
}

func TestLeveledLogger_SetLevel(t *testing.T) {
	l, logs := newObservedLogger(LogLevelNone)
	l.Error("hidden")
	l.SetLevel(LogLevelWarn)
	assert.Equal(t, LogLevelWarn, l.GetLevel())
	l.Warn("shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, ProjectName, logs.All()[0].LoggerName)
}

func TestLeveledLogger_DebugFrame(t *testing.T) {
	l, logs := newObservedLogger(LogLevelDebug)
	frame, _, err := kobuki.EncodeLedFrame(0, kobuki.LedUnit1, kobuki.ColorGreen)
	require.NoError(t, err)

	l.DebugFrame("TX", kobuki.FrameLed, frame)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "led", fields["kind"])
	assert.Equal(t, int64(8), fields["len"])
	assert.Equal(t, "AA 55 04 0C 02 00 02 08", fields["data"])

	l.SetLevel(LogLevelInfo)
	l.DebugFrame("TX", kobuki.FrameLed, frame)
	assert.Equal(t, 1, logs.Len())
}

func TestNewLeveledLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller.log")

	l := NewLeveledLogger(LogLevelWarn, path)
	l.Warn("bridge unreachable: %s", "192.168.240.1")
	l.Info("not written")
	l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bridge unreachable: 192.168.240.1")
	assert.NotContains(t, string(data), "not written")
}
