package domain

type ActionType string

const (
	ActionMask    ActionType = "mask"
	ActionRemove  ActionType = "remove"
	ActionHash    ActionType = "hash"
	ActionReplace ActionType = "replace"
)

type DataType string

const (
	DataBankAccounts DataType = "bank_accounts"
	DataCreditCards  DataType = "credit_cards"
	DataPasswords    DataType = "passwords"
	DataIPAddresses  DataType = "ip_addresses"
	DataEmails       DataType = "emails"
	DataIMEINumbers  DataType = "imei_numbers"
	DataMACAddresses DataType = "mac_addresses"
	DataUUIDs        DataType = "uuids"
	DataPEMKeys      DataType = "pem_keys"
	DataUSSSN        DataType = "us_ssn"
)

const (
	DefaultAction = ActionMask
	DefaultData   = DataBankAccounts
)

// Rule is a single scrubbing directive. ID is assigned by the editor store
// and never edited by the user.
type Rule struct {
	ID     int        `json:"id" yaml:"id"`
	Action ActionType `json:"action" yaml:"action"`
	Data   DataType   `json:"data" yaml:"data"`
	From   string     `json:"from" yaml:"from"`
}

func NewRule(id int) Rule {
	return Rule{
		ID:     id,
		Action: DefaultAction,
		Data:   DefaultData,
	}
}

func (r Rule) WithFrom(from string) Rule {
	r.From = from
	return r
}

// CloneRules returns an independent copy of rules. A nil input yields an
// empty, non-nil slice so JSON renders [] rather than null.
func CloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// EqualRules reports whether a and b hold the same rules in the same order.
func EqualRules(a, b []Rule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
