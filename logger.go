package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"kobuki-controller/kobuki"
)

const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 7
)

// LeveledLogger wraps a zap logger with log level filtering
type LeveledLogger struct {
	logger   *zap.SugaredLogger
	logLevel LogLevel
}

// NewLeveledLogger creates a leveled logger writing to stdout and, if logFile
// is set, to a rotated file as well
func NewLeveledLogger(level LogLevel, logFile string) *LeveledLogger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if logFile != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}))
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(sinks...),
		zapcore.DebugLevel,
	)
	return NewLeveledLoggerWithCore(core, level)
}

// NewLeveledLoggerWithCore creates a leveled logger on top of an existing zap core
func NewLeveledLoggerWithCore(core zapcore.Core, level LogLevel) *LeveledLogger {
	return &LeveledLogger{
		logger:   zap.New(core).Named(ProjectName).Sugar(),
		logLevel: level,
	}
}

// Debug logs a message at DEBUG level
func (l *LeveledLogger) Debug(format string, v ...interface{}) {
	if l.logLevel >= LogLevelDebug {
		l.logger.Debugf(format, v...)
	}
}

// Info logs a message at INFO level
func (l *LeveledLogger) Info(format string, v ...interface{}) {
	if l.logLevel >= LogLevelInfo {
		l.logger.Infof(format, v...)
	}
}

// Warn logs a message at WARN level
func (l *LeveledLogger) Warn(format string, v ...interface{}) {
	if l.logLevel >= LogLevelWarn {
		l.logger.Warnf(format, v...)
	}
}

// Error logs a message at ERROR level
func (l *LeveledLogger) Error(format string, v ...interface{}) {
	if l.logLevel >= LogLevelError {
		l.logger.Errorf(format, v...)
	}
}

// Printf provides compatibility with standard logger - logs at INFO level
func (l *LeveledLogger) Printf(format string, v ...interface{}) {
	l.Info(format, v...)
}

// SetLevel changes the log level
func (l *LeveledLogger) SetLevel(level LogLevel) {
	l.logLevel = level
}

// GetLevel returns the current log level
func (l *LeveledLogger) GetLevel() LogLevel {
	return l.logLevel
}

// Sync flushes buffered entries
func (l *LeveledLogger) Sync() {
	_ = l.logger.Sync()
}

// DebugFrame logs a protocol frame as hex at DEBUG level
func (l *LeveledLogger) DebugFrame(direction string, kind kobuki.FrameKind, frame []byte) {
	if l.logLevel >= LogLevelDebug {
		l.logger.Debugw(fmt.Sprintf("Frame %s", direction),
			"kind", kind.String(),
			"len", len(frame),
			"data", fmt.Sprintf("% X", frame),
		)
	}
}

var _ kobuki.Logger = (*LeveledLogger)(nil)
