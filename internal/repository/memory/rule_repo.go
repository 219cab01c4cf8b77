package memory

import (
	"context"
	"fmt"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/repository"
	"sync"
)

type RuleRepository struct {
	mu    sync.RWMutex
	rules []domain.Rule
	index map[int]int
	// version counts successful ReplaceAll calls.
	version int
}

func NewRuleRepository(seed ...domain.Rule) *RuleRepository {
	r := &RuleRepository{}
	r.reset(seed)
	return r
}

func (r *RuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return domain.CloneRules(r.rules), nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id int) (domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.index[id]
	if !exists {
		return domain.Rule{}, fmt.Errorf("%w: rule %d", repository.ErrNotFound, id)
	}
	return r.rules[pos], nil
}

func (r *RuleRepository) ReplaceAll(ctx context.Context, rules []domain.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := repository.CheckUnique(rules); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset(rules)
	r.version++

	return nil
}

func (r *RuleRepository) Version() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

func (r *RuleRepository) reset(rules []domain.Rule) {
	r.rules = domain.CloneRules(rules)
	r.index = make(map[int]int, len(rules))
	for i, rule := range r.rules {
		r.index[rule.ID] = i
	}
}
