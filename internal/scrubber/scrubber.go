// Package scrubber applies saved privacy rules to arbitrary JSON payloads.
package scrubber

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"privacy_rules/internal/domain"
	"privacy_rules/pkg/crypto"
	"sort"
	"strconv"
	"strings"
)

const FilteredPlaceholder = "[Filtered]"

type compiledRule struct {
	rule     domain.Rule
	selector Selector
}

// Applied records one rule firing on one node.
type Applied struct {
	RuleID int               `json:"rule_id"`
	Action domain.ActionType `json:"action"`
	Path   string            `json:"path"`
}

type Scrubber struct {
	rules  []compiledRule
	signer *crypto.Signer
	logger *slog.Logger
}

// New compiles rules in order. An unparsable selector fails the whole set
// and names the offending rule.
func New(rules []domain.Rule, signer *crypto.Signer, logger *slog.Logger) (*Scrubber, error) {
	if logger == nil {
		logger = slog.Default()
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		sel, err := ParseSelector(r.From)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{rule: r, selector: sel})
	}

	return &Scrubber{
		rules:  compiled,
		signer: signer,
		logger: logger,
	}, nil
}

// ScrubJSON decodes data, scrubs it and re-encodes the result.
func (s *Scrubber) ScrubJSON(data []byte) ([]byte, []Applied, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, fmt.Errorf("invalid payload: %w", err)
	}

	scrubbed, applied := s.Scrub(payload)

	out, err := json.Marshal(scrubbed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return out, applied, nil
}

// Scrub applies each rule in order to a decoded JSON value. Later rules see
// the output of earlier ones.
func (s *Scrubber) Scrub(payload any) (any, []Applied) {
	var applied []Applied
	for _, cr := range s.rules {
		payload = s.walk(cr, payload, nil, &applied)
	}
	return payload, applied
}

func (s *Scrubber) walk(cr compiledRule, value any, path []string, applied *[]Applied) any {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v[k] = s.walk(cr, v[k], append(path, k), applied)
		}
		return v
	case []any:
		for i := range v {
			v[i] = s.walk(cr, v[i], append(path, strconv.Itoa(i)), applied)
		}
		return v
	}

	if !cr.selector.Match(path, kindOf(value)) {
		return value
	}

	out, changed := s.apply(cr.rule, value, path)
	if changed {
		*applied = append(*applied, Applied{
			RuleID: cr.rule.ID,
			Action: cr.rule.Action,
			Path:   strings.Join(path, "."),
		})
	}
	return out
}

func (s *Scrubber) apply(rule domain.Rule, value any, path []string) (any, bool) {
	if value == nil {
		return nil, false
	}

	if rule.Data == domain.DataPasswords {
		if len(path) == 0 || !passwordKey.MatchString(path[len(path)-1]) {
			return value, false
		}
		return s.redactWhole(rule.Action, scalarString(value)), true
	}

	str, ok := value.(string)
	if !ok {
		return value, false
	}
	re, ok := detector(rule.Data)
	if !ok || !re.MatchString(str) {
		return value, false
	}

	switch rule.Action {
	case domain.ActionRemove:
		return nil, true
	case domain.ActionMask:
		return re.ReplaceAllStringFunc(str, mask), true
	case domain.ActionHash:
		return re.ReplaceAllStringFunc(str, s.hash), true
	case domain.ActionReplace:
		return re.ReplaceAllLiteralString(str, FilteredPlaceholder), true
	default:
		s.logger.Warn("Unknown scrub action", slog.String("action", string(rule.Action)), slog.Int("rule_id", rule.ID))
		return value, false
	}
}

func (s *Scrubber) redactWhole(action domain.ActionType, value string) any {
	switch action {
	case domain.ActionRemove:
		return nil
	case domain.ActionMask:
		return mask(value)
	case domain.ActionHash:
		return s.hash(value)
	default:
		return FilteredPlaceholder
	}
}

func (s *Scrubber) hash(value string) string {
	if s.signer == nil {
		return FilteredPlaceholder
	}
	return s.signer.HashValue(value)
}

func mask(value string) string {
	return strings.Repeat("*", len([]rune(value)))
}

func kindOf(value any) ValueKind {
	switch value.(type) {
	case string:
		return KindString
	case float64, json.Number:
		return KindNumber
	case bool:
		return KindBoolean
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	default:
		return KindNull
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
