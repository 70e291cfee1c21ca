package sim

import (
	"context"
	"log/slog"
	"reflect"
)

// LevelTrace is the slog level for per-event and per-cycle messages. It sits
// below slog.LevelDebug and is off unless a handler asks for it.
const LevelTrace = slog.LevelDebug - 4

// EventLogger is a hook that logs every event an engine handles.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger returns an EventLogger that writes to logger at LevelTrace.
func NewEventLogger(logger *slog.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func logs the event before it is handled.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	attrs := []slog.Attr{
		slog.Uint64("cycle", uint64(evt.Time())),
		slog.String("event", reflect.TypeOf(evt).String()),
	}

	if comp, ok := evt.Handler().(Named); ok {
		attrs = append(attrs, slog.String("handler", comp.Name()))
	}

	h.logger.LogAttrs(context.Background(), LevelTrace, "event", attrs...)
}
