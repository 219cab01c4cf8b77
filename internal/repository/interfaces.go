package repository

import (
	"context"
	"errors"
	"fmt"
	"privacy_rules/internal/domain"
)

// RuleRepository stores one ordered rule collection. It serves as both the
// loader and the persister of an editing session.
type RuleRepository interface {
	List(ctx context.Context) ([]domain.Rule, error)
	GetByID(ctx context.Context, id int) (domain.Rule, error)
	ReplaceAll(ctx context.Context, rules []domain.Rule) error
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
	ErrIntegrity = errors.New("integrity check failed")
)

// CheckUnique returns ErrDuplicate when two rules share an id.
func CheckUnique(rules []domain.Rule) error {
	seen := make(map[int]struct{}, len(rules))
	for _, r := range rules {
		if _, exists := seen[r.ID]; exists {
			return fmt.Errorf("%w: rule %d", ErrDuplicate, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
