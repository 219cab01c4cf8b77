package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type AuditEventType string

const (
	EventLoaded         AuditEventType = "loaded"
	EventLoadFailed     AuditEventType = "load_failed"
	EventCommitted      AuditEventType = "committed"
	EventCommitRejected AuditEventType = "commit_rejected"
	EventPersistFailed  AuditEventType = "persist_failed"
	EventRolledBack     AuditEventType = "rolled_back"
)

type AuditEvent struct {
	Type      AuditEventType
	RuleCount int
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// AuditSink delivers one event. Deliver is called from worker goroutines.
type AuditSink interface {
	Deliver(ctx context.Context, event AuditEvent) error
}

type AuditService struct {
	sinks        []AuditSink
	eventQueue   chan AuditEvent
	workers      int
	shutdownChan chan struct{}
	closeOnce    sync.Once
	mu           sync.RWMutex
	closed       bool
	wg           sync.WaitGroup
	logger       *slog.Logger
}

func NewAuditService(workers, queueSize int, logger *slog.Logger, sinks ...AuditSink) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	service := &AuditService{
		sinks:        sinks,
		eventQueue:   make(chan AuditEvent, queueSize),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	service.startWorkers()

	return service
}

// Publish enqueues event without blocking. A full queue drops the event.
// An accepted event is delivered even if Shutdown follows immediately.
func (s *AuditService) Publish(event AuditEvent) bool {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	select {
	case s.eventQueue <- event:
		return true
	default:
		s.logger.Warn("Audit queue full, dropping event",
			slog.String("type", string(event.Type)))
		return false
	}
}

func (s *AuditService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.eventQueue:
			s.processEvent(event, id)
		case <-s.shutdownChan:
			s.drain(id)
			return
		}
	}
}

func (s *AuditService) drain(id int) {
	for {
		select {
		case event := <-s.eventQueue:
			s.processEvent(event, id)
		default:
			return
		}
	}
}

func (s *AuditService) processEvent(event AuditEvent, workerID int) {
	startTime := time.Now()

	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := sink.Deliver(ctx, event)
		cancel()

		if err != nil {
			s.logger.Error("Failed to deliver audit event",
				slog.String("type", string(event.Type)),
				slog.String("sink", fmt.Sprintf("%T", sink)),
				slog.String("error", err.Error()),
				slog.Int("worker_id", workerID))
		}
	}

	s.logger.Debug("Audit event processed",
		slog.String("type", string(event.Type)),
		slog.Int("worker_id", workerID),
		slog.Duration("duration", time.Since(startTime)))
}

// Shutdown stops the workers after they drain queued events.
func (s *AuditService) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.shutdownChan)
		s.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Audit service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
