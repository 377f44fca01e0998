package kobuki

import "context"

type safetyFrameKey struct{}

// WithSafetyFrame marks ctx as carrying a frame that must reach the transport
// (stop after a drive, shutdown LED-off and stop). Pacing wrappers pass it straight through.
func WithSafetyFrame(ctx context.Context) context.Context {
	return context.WithValue(ctx, safetyFrameKey{}, true)
}

// IsSafetyFrame reports whether ctx was marked by WithSafetyFrame
func IsSafetyFrame(ctx context.Context) bool {
	v, _ := ctx.Value(safetyFrameKey{}).(bool)
	return v
}
