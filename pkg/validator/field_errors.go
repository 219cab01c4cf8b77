package validator

import (
	"maps"
	"privacy_rules/internal/domain"
)

// FieldErrors maps rule id to field to message. It only ever holds entries
// for fields that were empty when last checked.
type FieldErrors map[int]map[Field]string

func NewFieldErrors() FieldErrors {
	return make(FieldErrors)
}

// Check validates one field of rule and updates only that field's entry:
// empty with no entry inserts, empty with an entry keeps it, filled with an
// entry removes it, filled with no entry does nothing.
func (fe FieldErrors) Check(rule domain.Rule, field Field) error {
	err := ValidateField(rule, field)
	switch {
	case err == ErrFieldRequired:
		if _, exists := fe[rule.ID][field]; !exists {
			fe.set(rule.ID, field, MsgFieldRequired)
		}
	case err == nil:
		fe.remove(rule.ID, field)
	}
	return err
}

// CheckAll runs Check on every field of rule and reports whether it is valid.
func (fe FieldErrors) CheckAll(rule domain.Rule) bool {
	valid := true
	for _, f := range Fields {
		if fe.Check(rule, f) != nil {
			valid = false
		}
	}
	return valid
}

// ClearFilled drops entries for fields of rule that are now non-empty. It
// never adds entries.
func (fe FieldErrors) ClearFilled(rule domain.Rule) {
	for field := range fe[rule.ID] {
		if ValidateField(rule, field) == nil {
			fe.remove(rule.ID, field)
		}
	}
}

func (fe FieldErrors) Get(id int, field Field) (string, bool) {
	msg, ok := fe[id][field]
	return msg, ok
}

func (fe FieldErrors) DropRule(id int) {
	delete(fe, id)
}

func (fe FieldErrors) Len() int {
	n := 0
	for _, fields := range fe {
		n += len(fields)
	}
	return n
}

func (fe FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for id, fields := range fe {
		out[id] = maps.Clone(fields)
	}
	return out
}

func (fe FieldErrors) set(id int, field Field, msg string) {
	if fe[id] == nil {
		fe[id] = make(map[Field]string)
	}
	fe[id][field] = msg
}

func (fe FieldErrors) remove(id int, field Field) {
	fields, ok := fe[id]
	if !ok {
		return
	}
	delete(fields, field)
	if len(fields) == 0 {
		delete(fe, id)
	}
}
