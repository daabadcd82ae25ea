package tomasulo

import (
	"context"
	"log/slog"
)

// LevelTrace is the slog level used for per-cycle scheduling events.
// It sits below Debug; nothing is emitted unless the caller installs a
// handler that accepts it.
const LevelTrace slog.Level = slog.LevelDebug - 4

func trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
