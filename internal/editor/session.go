package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/repository"
	"privacy_rules/internal/service"
	"privacy_rules/pkg/metrics"
	"time"
)

const DefaultLoadTimeout = 10 * time.Second

// Loader fetches the initial rule collection.
type Loader interface {
	FetchRules(ctx context.Context) ([]domain.Rule, error)
}

// RepositoryBackend adapts a RuleRepository to the Loader and Persister
// collaborators.
type RepositoryBackend struct {
	Repo repository.RuleRepository
}

func (b RepositoryBackend) FetchRules(ctx context.Context) ([]domain.Rule, error) {
	return b.Repo.List(ctx)
}

func (b RepositoryBackend) PersistRules(ctx context.Context, rules []domain.Rule) error {
	return b.Repo.ReplaceAll(ctx, rules)
}

type SessionOptions struct {
	LoadTimeout time.Duration
	Metrics     *metrics.MetricsCollector
	Audit       *service.AuditService
	Logger      *slog.Logger
}

// Session ties a Store to its loader and reports outcomes to metrics and
// the audit trail.
type Session struct {
	store       *Store
	loader      Loader
	loadTimeout time.Duration
	metrics     *metrics.MetricsCollector
	audit       *service.AuditService
	logger      *slog.Logger
}

func NewSession(loader Loader, persister Persister, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}

	return &Session{
		store:       NewStore(persister, logger),
		loader:      loader,
		loadTimeout: timeout,
		metrics:     opts.Metrics,
		audit:       opts.Audit,
		logger:      logger,
	}
}

func (s *Session) Store() *Store {
	return s.store
}

// Start fetches rules and loads them into the store. On failure the store
// keeps its previous state, so a session that never loaded stays Loading.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	rules, err := s.loader.FetchRules(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordLoadFailure()
		}
		s.publish(service.AuditEvent{
			Type:     service.EventLoadFailed,
			Message:  err.Error(),
			Metadata: map[string]string{"timeout": s.loadTimeout.String()},
		})
		s.logger.ErrorContext(ctx, "Failed to load rules", slog.String("error", err.Error()))
		return fmt.Errorf("failed to load rules: %w", err)
	}

	s.store.Load(rules)
	s.Observe()
	s.publish(service.AuditEvent{Type: service.EventLoaded, RuleCount: len(rules)})
	return nil
}

func (s *Session) Save(ctx context.Context) error {
	startTime := time.Now()
	err := s.store.Commit(ctx)
	duration := time.Since(startTime)

	var result string
	event := service.AuditEvent{RuleCount: len(s.store.working)}
	switch {
	case err == nil:
		result = metrics.ResultCommitted
		event.Type = service.EventCommitted
	case errors.Is(err, ErrCommitInvalid):
		result = metrics.ResultRejected
		event.Type = service.EventCommitRejected
		event.Message = s.store.AggregateError()
	default:
		result = metrics.ResultPersistFailed
		event.Type = service.EventPersistFailed
		event.Message = err.Error()
	}

	event.Metadata = map[string]string{
		"result":   result,
		"duration": duration.String(),
	}

	if s.metrics != nil {
		s.metrics.RecordCommit(duration, result)
	}
	s.Observe()
	s.publish(event)
	return err
}

func (s *Session) Cancel() {
	s.store.Rollback()

	if s.metrics != nil {
		s.metrics.RecordRollback()
	}
	s.Observe()
	s.publish(service.AuditEvent{Type: service.EventRolledBack, RuleCount: len(s.store.saved)})
}

// Observe refreshes the collection gauges after an edit.
func (s *Session) Observe() {
	if s.metrics == nil {
		return
	}
	s.metrics.UpdateCollection(len(s.store.working), len(s.store.saved), s.store.errors.Len())
}

func (s *Session) publish(event service.AuditEvent) {
	if s.audit == nil {
		return
	}
	s.audit.Publish(event)
}
