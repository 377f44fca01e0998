package kobuki

// Logger interface for controller logging
type Logger interface {
	Printf(format string, v ...interface{})
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	DebugFrame(direction string, kind FrameKind, frame []byte)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Printf(format string, v ...interface{})                    {}
func (NopLogger) Debug(format string, v ...interface{})                     {}
func (NopLogger) Info(format string, v ...interface{})                      {}
func (NopLogger) Warn(format string, v ...interface{})                      {}
func (NopLogger) Error(format string, v ...interface{})                     {}
func (NopLogger) DebugFrame(direction string, kind FrameKind, frame []byte) {}

// LogFrame logs a frame if a logger is present
func LogFrame(logger Logger, direction string, kind FrameKind, frame []byte) {
	if logger != nil {
		logger.DebugFrame(direction, kind, frame)
	}
}
