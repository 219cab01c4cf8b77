package scrubber

import (
	"encoding/json"
	"privacy_rules/internal/domain"
	"privacy_rules/pkg/crypto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrub(t *testing.T, rules []domain.Rule, payload string) (map[string]any, []Applied) {
	t.Helper()
	s, err := New(rules, crypto.NewSigner("k", nil), nil)
	require.NoError(t, err)

	out, applied, err := s.ScrubJSON([]byte(payload))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	return decoded, applied
}

func TestScrubber_MaskIP(t *testing.T) {
	rules := []domain.Rule{{ID: 1, Action: domain.ActionMask, Data: domain.DataIPAddresses, From: "$string"}}

	out, applied := scrub(t, rules, `{"client":"from 10.0.0.1 ok","count":3}`)

	assert.Equal(t, "from ******** ok", out["client"])
	assert.Equal(t, 3.0, out["count"])
	require.Len(t, applied, 1)
	assert.Equal(t, Applied{RuleID: 1, Action: domain.ActionMask, Path: "client"}, applied[0])
}

func TestScrubber_RemoveRespectsSelector(t *testing.T) {
	rules := []domain.Rule{{ID: 2, Action: domain.ActionRemove, Data: domain.DataEmails, From: "contact"}}

	out, _ := scrub(t, rules, `{"contact":"a@b.io","other":"c@d.io"}`)

	assert.Nil(t, out["contact"])
	assert.Contains(t, out, "contact")
	assert.Equal(t, "c@d.io", out["other"])
}

func TestScrubber_ReplaceNested(t *testing.T) {
	rules := []domain.Rule{{ID: 3, Action: domain.ActionReplace, Data: domain.DataUSSSN, From: "user.*"}}

	out, applied := scrub(t, rules, `{"user":{"ssn":"ssn is 123-45-6789"},"ssn":"123-45-6789"}`)

	assert.Equal(t, "ssn is [Filtered]", out["user"].(map[string]any)["ssn"])
	assert.Equal(t, "123-45-6789", out["ssn"])
	require.Len(t, applied, 1)
	assert.Equal(t, "user.ssn", applied[0].Path)
}

func TestScrubber_HashDeterministic(t *testing.T) {
	rules := []domain.Rule{{ID: 4, Action: domain.ActionHash, Data: domain.DataUUIDs, From: "**"}}
	id := "123e4567-e89b-12d3-a456-426614174000"

	out, _ := scrub(t, rules, `{"a":"`+id+`","b":["`+id+`"]}`)

	hashed := out["a"].(string)
	assert.NotContains(t, hashed, id)
	assert.Len(t, hashed, 64)
	assert.Equal(t, hashed, out["b"].([]any)[0])
}

func TestScrubber_PasswordsByKey(t *testing.T) {
	rules := []domain.Rule{{ID: 5, Action: domain.ActionMask, Data: domain.DataPasswords, From: "**"}}

	out, _ := scrub(t, rules, `{"password":"hunter2","pin":1234,"db_secret":42,"name":"x"}`)

	assert.Equal(t, "*******", out["password"])
	assert.Equal(t, "**", out["db_secret"])
	assert.Equal(t, 1234.0, out["pin"])
	assert.Equal(t, "x", out["name"])
}

func TestScrubber_NotObjectSelector(t *testing.T) {
	rules := []domain.Rule{{ID: 1, Action: domain.ActionMask, Data: domain.DataBankAccounts, From: "api_key && !$object"}}

	out, applied := scrub(t, rules, `{"api_key":"DE89370400440532013000","nested":{"api_key":{"iban":"DE89370400440532013000"}}}`)

	assert.Equal(t, strings.Repeat("*", 22), out["api_key"])
	inner := out["nested"].(map[string]any)["api_key"].(map[string]any)
	assert.Equal(t, "DE89370400440532013000", inner["iban"])
	assert.Len(t, applied, 1)
}

func TestScrubber_RulesApplyInOrder(t *testing.T) {
	rules := []domain.Rule{
		{ID: 1, Action: domain.ActionRemove, Data: domain.DataEmails, From: "$string"},
		{ID: 2, Action: domain.ActionMask, Data: domain.DataEmails, From: "$string"},
	}

	out, applied := scrub(t, rules, `{"e":"a@b.io"}`)

	assert.Nil(t, out["e"])
	assert.Len(t, applied, 1)
}

func TestNew_InvalidSelector(t *testing.T) {
	_, err := New([]domain.Rule{{ID: 8, Action: domain.ActionMask, Data: domain.DataEmails, From: "a &&"}}, nil, nil)

	assert.ErrorIs(t, err, ErrInvalidSelector)
	assert.Contains(t, err.Error(), "rule 8")
}

func TestScrubJSON_InvalidPayload(t *testing.T) {
	s, err := New(nil, nil, nil)
	require.NoError(t, err)

	_, _, err = s.ScrubJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestScrubber_HashWithoutSigner(t *testing.T) {
	s, err := New([]domain.Rule{{ID: 1, Action: domain.ActionHash, Data: domain.DataEmails, From: "**"}}, nil, nil)
	require.NoError(t, err)

	out, _ := s.Scrub(map[string]any{"e": "x a@b.io"})

	assert.Equal(t, "x "+FilteredPlaceholder, out.(map[string]any)["e"])
}
