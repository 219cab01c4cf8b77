package scrubber

import (
	"privacy_rules/internal/domain"
	"regexp"
)

var detectors = map[domain.DataType]*regexp.Regexp{
	domain.DataBankAccounts: regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`),
	domain.DataCreditCards:  regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
	domain.DataIPAddresses: regexp.MustCompile(
		`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b` +
			`|\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`),
	domain.DataEmails:       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	domain.DataIMEINumbers:  regexp.MustCompile(`\b\d{2}-?\d{6}-?\d{6}-?\d{1,2}\b`),
	domain.DataMACAddresses: regexp.MustCompile(`\b(?:[0-9a-fA-F]{2}[:-]){5}[0-9a-fA-F]{2}\b`),
	domain.DataUUIDs:        regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`),
	domain.DataPEMKeys:      regexp.MustCompile(`(?s)-----BEGIN[A-Z ]*PRIVATE KEY-----.+?-----END[A-Z ]*PRIVATE KEY-----`),
	domain.DataUSSSN:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
}

// passwordKey matches key names whose whole value is treated as a secret.
var passwordKey = regexp.MustCompile(`(?i)(password|passwd|pwd|secret|passphrase|credentials?)`)

func detector(data domain.DataType) (*regexp.Regexp, bool) {
	re, ok := detectors[data]
	return re, ok
}
