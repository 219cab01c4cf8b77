package yamlfile

import (
	"context"
	"os"
	"path/filepath"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/repository"
	"privacy_rules/pkg/crypto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRules() []domain.Rule {
	return []domain.Rule{
		{ID: 1, Action: domain.ActionMask, Data: domain.DataBankAccounts, From: "api_key && !$object"},
		{ID: 2, Action: domain.ActionRemove, Data: domain.DataIPAddresses, From: "xxx && xxx"},
	}
}

func TestRuleRepository_MissingFileIsEmpty(t *testing.T) {
	repo := NewRuleRepository(filepath.Join(t.TempDir(), "rules.yaml"), nil, nil)

	rules, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRuleRepository_RoundTripSigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rules.yaml")
	repo := NewRuleRepository(path, crypto.NewSigner("k", nil), nil)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, sampleRules()))
	got, err := repo.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, sampleRules(), got)

	rule, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.DataIPAddresses, rule.Data)

	_, err = repo.GetByID(ctx, 9)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRuleRepository_TamperedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	repo := NewRuleRepository(path, crypto.NewSigner("k", nil), nil)
	require.NoError(t, repo.ReplaceAll(context.Background(), sampleRules()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "xxx && xxx", "yyy", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	_, err = repo.List(context.Background())
	assert.ErrorIs(t, err, repository.ErrIntegrity)
}

func TestRuleRepository_UnsignedFileRejectedWhenSigning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, NewRuleRepository(path, nil, nil).ReplaceAll(context.Background(), sampleRules()))

	_, err := NewRuleRepository(path, crypto.NewSigner("k", nil), nil).List(context.Background())

	assert.ErrorIs(t, err, repository.ErrIntegrity)
}

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(`
version: 1
rules:
  - id: 1
    action: hash
    data: emails
    from: "$string"
`))
	require.NoError(t, err)
	require.Len(t, doc.Rules, 1)
	assert.Equal(t, domain.ActionHash, doc.Rules[0].Action)

	_, err = Decode([]byte("version: 99\n"))
	assert.Error(t, err)

	_, err = Decode([]byte("rules:\n  - id: 1\n  - id: 1\n"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	doc, err = Decode([]byte("version: 1\n"))
	require.NoError(t, err)
	assert.NotNil(t, doc.Rules)
}
