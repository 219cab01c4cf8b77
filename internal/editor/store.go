package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"privacy_rules/internal/domain"
	"privacy_rules/pkg/validator"
)

const MsgSaveFailed = "An error occurred while saving Data Privacy Rules"

var (
	ErrCommitInvalid = errors.New("rule collection has invalid rules")
	ErrPersistFailed = errors.New("failed to persist rules")
	ErrRuleNotFound  = errors.New("rule not found")
)

type State string

const (
	StateLoading State = "loading"
	StateClean   State = "clean"
	StateDirty   State = "dirty"
)

// Persister receives the working rules once they validate. Promotion to
// saved only happens when it returns nil.
type Persister interface {
	PersistRules(ctx context.Context, rules []domain.Rule) error
}

// Store owns the working and saved rule sequences of one editing session.
// It is not safe for concurrent use.
type Store struct {
	working   []domain.Rule
	saved     []domain.Rule
	errors    validator.FieldErrors
	saveError string
	lastID    int
	loaded    bool
	persister Persister
	logger    *slog.Logger
}

func NewStore(persister Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		working:   []domain.Rule{},
		saved:     []domain.Rule{},
		errors:    validator.NewFieldErrors(),
		persister: persister,
		logger:    logger,
	}
}

// Load resets the session to rules. Both sequences get their own copy.
func (s *Store) Load(rules []domain.Rule) {
	s.working = domain.CloneRules(rules)
	s.saved = domain.CloneRules(rules)
	s.errors = validator.NewFieldErrors()
	s.saveError = ""
	s.lastID = 0
	s.loaded = true

	s.logger.Info("Rules loaded", slog.Int("count", len(rules)))
}

func (s *Store) Add() domain.Rule {
	rule := domain.NewRule(s.nextID())
	s.lastID = rule.ID
	s.working = append(s.working, rule)
	return rule
}

// Update replaces the working rule with the same id and clears errors for
// fields that are now filled. It reports whether a rule matched.
func (s *Store) Update(rule domain.Rule) bool {
	for i := range s.working {
		if s.working[i].ID == rule.ID {
			s.working[i] = rule
			s.errors.ClearFilled(rule)
			return true
		}
	}
	return false
}

func (s *Store) Delete(id int) bool {
	for i := range s.working {
		if s.working[i].ID == id {
			s.working = append(s.working[:i:i], s.working[i+1:]...)
			s.errors.DropRule(id)
			return true
		}
	}
	return false
}

// ValidateField is the blur check for one field of one working rule.
func (s *Store) ValidateField(id int, field validator.Field) error {
	rule, ok := s.find(id)
	if !ok {
		return fmt.Errorf("rule %d: %w", id, ErrRuleNotFound)
	}
	return s.errors.Check(rule, field)
}

// Commit validates every working rule and, when all are valid and the
// persister accepts them, replaces saved with a copy of working.
func (s *Store) Commit(ctx context.Context) error {
	valid := true
	for _, rule := range s.working {
		if !s.errors.CheckAll(rule) {
			valid = false
		}
	}

	if !valid {
		s.saveError = MsgSaveFailed
		s.logger.Warn("Commit rejected",
			slog.Int("field_errors", s.errors.Len()))
		return ErrCommitInvalid
	}

	snapshot := domain.CloneRules(s.working)
	if s.persister != nil {
		if err := s.persister.PersistRules(ctx, snapshot); err != nil {
			s.saveError = MsgSaveFailed
			s.logger.Error("Persisting rules failed",
				slog.String("error", err.Error()))
			return fmt.Errorf("%w: %w", ErrPersistFailed, err)
		}
	}

	s.saved = snapshot
	s.saveError = ""

	s.logger.Info("Rules committed", slog.Int("count", len(snapshot)))
	return nil
}

func (s *Store) Rollback() {
	s.working = domain.CloneRules(s.saved)
	s.errors = validator.NewFieldErrors()
	s.saveError = ""
}

func (s *Store) Working() []domain.Rule {
	return domain.CloneRules(s.working)
}

func (s *Store) Saved() []domain.Rule {
	return domain.CloneRules(s.saved)
}

func (s *Store) Errors() validator.FieldErrors {
	return s.errors.Clone()
}

func (s *Store) FieldError(id int, field validator.Field) (string, bool) {
	return s.errors.Get(id, field)
}

// AggregateError is the user-facing message of the last failed commit, or
// empty.
func (s *Store) AggregateError() string {
	return s.saveError
}

func (s *Store) IsDirty() bool {
	return !domain.EqualRules(s.working, s.saved) || s.errors.Len() > 0 || s.saveError != ""
}

func (s *Store) State() State {
	switch {
	case !s.loaded:
		return StateLoading
	case s.IsDirty():
		return StateDirty
	default:
		return StateClean
	}
}

func (s *Store) find(id int) (domain.Rule, bool) {
	for _, r := range s.working {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Rule{}, false
}

// nextID is max working id + 1. lastID keeps ids handed out earlier in the
// session from being reused after a delete or rollback.
func (s *Store) nextID() int {
	maxID := s.lastID
	for _, r := range s.working {
		maxID = max(maxID, r.ID)
	}
	for _, r := range s.saved {
		maxID = max(maxID, r.ID)
	}
	return maxID + 1
}
