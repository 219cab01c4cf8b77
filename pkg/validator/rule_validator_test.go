package validator

import (
	"errors"
	"privacy_rules/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateField_From(t *testing.T) {
	err := ValidateField(domain.Rule{From: ""}, FieldFrom)
	require.ErrorIs(t, err, ErrFieldRequired)
	assert.Equal(t, "Field Required", err.Error())

	assert.NoError(t, ValidateField(domain.Rule{From: "x"}, FieldFrom))
}

func TestValidateField_Idempotent(t *testing.T) {
	r := domain.Rule{ID: 1, Action: domain.ActionMask}
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, ValidateField(r, FieldData), ErrFieldRequired)
		assert.NoError(t, ValidateField(r, FieldAction))
	}
}

func TestValidateField_UnknownField(t *testing.T) {
	err := ValidateField(domain.NewRule(1), Field("id"))
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestValidateRule(t *testing.T) {
	assert.Empty(t, ValidateRule(domain.NewRule(1).WithFrom("$string")))
	assert.Equal(t, []Field{FieldFrom}, ValidateRule(domain.NewRule(1)))
	assert.Equal(t, Fields, ValidateRule(domain.Rule{ID: 4}))
}

func TestValidateCollection(t *testing.T) {
	valid := []domain.Rule{domain.NewRule(1).WithFrom("a"), domain.NewRule(2).WithFrom("b")}
	assert.True(t, ValidateCollection(valid))
	assert.True(t, ValidateCollection(nil))
	assert.False(t, ValidateCollection(append(valid, domain.NewRule(3))))
}

func TestParseField(t *testing.T) {
	f, err := ParseField("data")
	require.NoError(t, err)
	assert.Equal(t, FieldData, f)

	_, err = ParseField("bogus")
	assert.ErrorIs(t, err, ErrUnknownField)
}
