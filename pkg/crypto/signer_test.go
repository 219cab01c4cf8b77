package crypto

import (
	"privacy_rules/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_SignAndVerifyRules(t *testing.T) {
	s := NewSigner("test-secret", nil)
	rules := []domain.Rule{domain.NewRule(1).WithFrom("api_key"), domain.NewRule(2).WithFrom("$string")}

	sig := s.SignRules(rules)
	ok, err := s.VerifyRules(rules, sig)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSigner_VerifyRulesDetectsChange(t *testing.T) {
	s := NewSigner("test-secret", nil)
	rules := []domain.Rule{domain.NewRule(1).WithFrom("api_key")}
	sig := s.SignRules(rules)

	rules[0].From = "password"
	ok, err := s.VerifyRules(rules, sig)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSigner_DifferentKeys(t *testing.T) {
	a := NewSigner("a", nil)
	b := NewSigner("b", nil)

	assert.NotEqual(t, a.HashValue("secret"), b.HashValue("secret"))
	assert.Equal(t, a.HashValue("secret"), a.HashValue("secret"))
	assert.Len(t, a.HashValue("x"), 64)
}
