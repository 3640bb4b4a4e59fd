package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// MultiHandler sends each record to the journal and the console handlers
// together. A failing sink does not stop the others from receiving the
// record.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler combines handlers. Nil handlers are skipped.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	m := &MultiHandler{}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes r to every enabled handler and joins their errors.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	last := len(m.handlers) - 1
	for i, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		rec := r
		if i != last {
			rec = r.Clone()
		}
		if err := h.Handle(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("log sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = fn(h)
	}
	return &MultiHandler{handlers: handlers}
}
