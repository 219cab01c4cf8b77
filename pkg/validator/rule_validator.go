package validator

import (
	"errors"
	"fmt"
	"privacy_rules/internal/domain"
)

type Field string

const (
	FieldAction Field = "action"
	FieldData   Field = "data"
	FieldFrom   Field = "from"
)

// Fields lists the user-editable fields in display order.
var Fields = []Field{FieldAction, FieldData, FieldFrom}

const MsgFieldRequired = "Field Required"

var (
	ErrFieldRequired = errors.New(MsgFieldRequired)
	ErrUnknownField  = errors.New("unknown field")
)

func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// ValidateField returns ErrFieldRequired iff the named field of rule is empty.
func ValidateField(rule domain.Rule, field Field) error {
	var empty bool
	switch field {
	case FieldAction:
		empty = rule.Action == ""
	case FieldData:
		empty = rule.Data == ""
	case FieldFrom:
		empty = rule.From == ""
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	if empty {
		return ErrFieldRequired
	}
	return nil
}

// ValidateRule returns the empty fields of rule. An empty result means the
// rule is valid.
func ValidateRule(rule domain.Rule) []Field {
	var missing []Field
	for _, f := range Fields {
		if ValidateField(rule, f) != nil {
			missing = append(missing, f)
		}
	}
	return missing
}

func ValidateCollection(rules []domain.Rule) bool {
	for _, r := range rules {
		if len(ValidateRule(r)) > 0 {
			return false
		}
	}
	return true
}
