package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRule_Defaults(t *testing.T) {
	r := NewRule(7)

	assert.Equal(t, Rule{ID: 7, Action: ActionMask, Data: DataBankAccounts}, r)
}

func TestCloneRules_Independent(t *testing.T) {
	src := []Rule{NewRule(1).WithFrom("a")}

	dst := CloneRules(src)
	dst[0].From = "b"

	assert.Equal(t, "a", src[0].From)
	assert.NotNil(t, CloneRules(nil))
	assert.Empty(t, CloneRules(nil))
}

func TestEqualRules(t *testing.T) {
	a := []Rule{NewRule(1), NewRule(2)}

	assert.True(t, EqualRules(a, CloneRules(a)))
	assert.False(t, EqualRules(a, a[:1]))
	assert.False(t, EqualRules(a, []Rule{NewRule(2), NewRule(1)}))
}

func TestOptions_Labels(t *testing.T) {
	assert.Len(t, ActionOptions(), 4)
	assert.Equal(t, Option{Value: "mask", Label: "Mask"}, ActionOptions()[0])
	assert.Equal(t, "IP addresses", DataIPAddresses.Label())
	assert.Equal(t, "bogus", DataType("bogus").Label())
	assert.True(t, ActionHash.IsKnown())
	assert.False(t, ActionType("").IsKnown())
	assert.False(t, DataType("nope").IsKnown())
}
