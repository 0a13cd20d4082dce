package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/mailblast/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// responder guards a message against double ack/nack.
type responder struct {
	done atomic.Bool
}

// claim reports whether the caller is the first to respond.
func (r *responder) claim() bool {
	return r.done.CompareAndSwap(false, true)
}

func (r *responder) responded() bool {
	return r.done.Load()
}

type respondable interface {
	Message
	responded() bool
}

// dispatch runs handler under panic recovery and applies the auto-ack policy.
// It returns the handler error, or the ack/nack error when that failed.
func dispatch(ctx context.Context, kind string, handler Handler, msg respondable, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error { return handler(ctx, msg) })

	if !autoAck || msg.responded() {
		return herr
	}

	if herr == nil {
		return msg.Ack(ctx)
	}

	if err := msg.Nack(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to nack message", "kind", kind, "id", msg.ID(), "error", err)
	}

	return herr
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}
