package domain

// Option is a selectable value as shown by a presentation layer.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var actionLabels = []struct {
	action ActionType
	label  string
}{
	{ActionMask, "Mask"},
	{ActionRemove, "Remove"},
	{ActionHash, "Hash"},
	{ActionReplace, "Replace"},
}

var dataLabels = []struct {
	data  DataType
	label string
}{
	{DataBankAccounts, "Bank account numbers"},
	{DataCreditCards, "Credit card numbers"},
	{DataPasswords, "Password fields"},
	{DataIPAddresses, "IP addresses"},
	{DataEmails, "Email addresses"},
	{DataIMEINumbers, "IMEI numbers"},
	{DataMACAddresses, "MAC addresses"},
	{DataUUIDs, "UUIDs"},
	{DataPEMKeys, "PEM keys"},
	{DataUSSSN, "US social security numbers"},
}

func ActionOptions() []Option {
	out := make([]Option, 0, len(actionLabels))
	for _, a := range actionLabels {
		out = append(out, Option{Value: string(a.action), Label: a.label})
	}
	return out
}

func DataOptions() []Option {
	out := make([]Option, 0, len(dataLabels))
	for _, d := range dataLabels {
		out = append(out, Option{Value: string(d.data), Label: d.label})
	}
	return out
}

// Label returns the display label, or the raw key for unknown actions.
func (a ActionType) Label() string {
	for _, l := range actionLabels {
		if l.action == a {
			return l.label
		}
	}
	return string(a)
}

func (a ActionType) IsKnown() bool {
	for _, l := range actionLabels {
		if l.action == a {
			return true
		}
	}
	return false
}

func (d DataType) Label() string {
	for _, l := range dataLabels {
		if l.data == d {
			return l.label
		}
	}
	return string(d)
}

func (d DataType) IsKnown() bool {
	for _, l := range dataLabels {
		if l.data == d {
			return true
		}
	}
	return false
}
