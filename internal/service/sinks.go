package service

import (
	"context"
	"log/slog"
	"sync"
)

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, event AuditEvent) error {
	attrs := []slog.Attr{
		slog.String("type", string(event.Type)),
		slog.Int("rule_count", event.RuleCount),
		slog.Time("created_at", event.CreatedAt),
	}
	if event.Message != "" {
		attrs = append(attrs, slog.String("message", event.Message))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "Rules audit", attrs...)
	return nil
}

type MemorySink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (m *MemorySink) Deliver(ctx context.Context, event AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemorySink) Events() []AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuditEvent, len(m.events))
	copy(out, m.events)
	return out
}
