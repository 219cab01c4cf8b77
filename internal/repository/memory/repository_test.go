package memory

import (
	"context"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleRepository_ListKeepsOrder(t *testing.T) {
	repo := NewRuleRepository(
		domain.Rule{ID: 2, Action: domain.ActionRemove, Data: domain.DataIPAddresses, From: "xxx && xxx"},
		domain.Rule{ID: 1, Action: domain.ActionMask, Data: domain.DataBankAccounts, From: "api_key && !$object"},
	)

	got, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
}

func TestRuleRepository_ListReturnsCopy(t *testing.T) {
	repo := NewRuleRepository(domain.NewRule(1).WithFrom("a"))

	got, _ := repo.List(context.Background())
	got[0].From = "changed"
	again, _ := repo.List(context.Background())

	assert.Equal(t, "a", again[0].From)
}

func TestRuleRepository_ReplaceAllAndGetByID(t *testing.T) {
	repo := NewRuleRepository()
	rules := []domain.Rule{domain.NewRule(1).WithFrom("a"), domain.NewRule(5).WithFrom("b")}

	require.NoError(t, repo.ReplaceAll(context.Background(), rules))
	got, err := repo.GetByID(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "b", got.From)
	assert.Equal(t, 1, repo.Version())
}

func TestRuleRepository_GetByIDNotFound(t *testing.T) {
	repo := NewRuleRepository()

	_, err := repo.GetByID(context.Background(), 42)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRuleRepository_ReplaceAllRejectsDuplicates(t *testing.T) {
	repo := NewRuleRepository(domain.NewRule(1).WithFrom("keep"))

	err := repo.ReplaceAll(context.Background(), []domain.Rule{domain.NewRule(3), domain.NewRule(3)})

	require.ErrorIs(t, err, repository.ErrDuplicate)
	got, _ := repo.List(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].From)
}

func TestRuleRepository_CanceledContext(t *testing.T) {
	repo := NewRuleRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
