package memory

import (
	"privacy_rules/internal/repository"
)

var (
	_ repository.RuleRepository = (*RuleRepository)(nil)
)
