// Package yamlfile keeps a rule collection in a single YAML document,
// optionally signed so that hand edits outside the editor are detected.
package yamlfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/repository"
	"privacy_rules/pkg/crypto"
	"sync"

	"gopkg.in/yaml.v3"
)

const documentVersion = 1

// Document is the on-disk layout of a rules file.
type Document struct {
	Version   int           `yaml:"version"`
	Signature string        `yaml:"signature,omitempty"`
	Rules     []domain.Rule `yaml:"rules"`
}

type RuleRepository struct {
	mu     sync.Mutex
	path   string
	signer *crypto.Signer
	logger *slog.Logger
}

var _ repository.RuleRepository = (*RuleRepository)(nil)

// NewRuleRepository stores rules at path. With a nil signer documents are
// written unsigned and signatures are not checked.
func NewRuleRepository(path string, signer *crypto.Signer, logger *slog.Logger) *RuleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleRepository{
		path:   path,
		signer: signer,
		logger: logger,
	}
}

// List returns an empty collection when the file does not exist yet.
func (r *RuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id int) (domain.Rule, error) {
	rules, err := r.List(ctx)
	if err != nil {
		return domain.Rule{}, err
	}
	for _, rule := range rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return domain.Rule{}, fmt.Errorf("%w: rule %d", repository.ErrNotFound, id)
}

// ReplaceAll writes to a temp file in the same directory and renames it over
// the target, so readers never observe a partial document.
func (r *RuleRepository) ReplaceAll(ctx context.Context, rules []domain.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := repository.CheckUnique(rules); err != nil {
		return err
	}

	doc := Document{
		Version: documentVersion,
		Rules:   domain.CloneRules(rules),
	}
	if r.signer != nil {
		doc.Signature = r.signer.SignRules(doc.Rules)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".rules-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace rules file: %w", err)
	}

	r.logger.Info("Rules file written",
		slog.String("path", r.path),
		slog.Int("count", len(rules)))
	return nil
}

func (r *RuleRepository) read() (Document, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{Version: documentVersion, Rules: []domain.Rule{}}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return Document{}, err
	}

	if r.signer != nil {
		if doc.Signature == "" {
			return Document{}, fmt.Errorf("%w: %s is not signed", repository.ErrIntegrity, r.path)
		}
		if ok, _ := r.signer.VerifyRules(doc.Rules, doc.Signature); !ok {
			return Document{}, fmt.Errorf("%w: signature mismatch in %s", repository.ErrIntegrity, r.path)
		}
	}
	return doc, nil
}

// Decode parses a rules document without any signature check.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if doc.Version > documentVersion {
		return Document{}, fmt.Errorf("unsupported rules file version %d", doc.Version)
	}
	if doc.Rules == nil {
		doc.Rules = []domain.Rule{}
	}
	if err := repository.CheckUnique(doc.Rules); err != nil {
		return Document{}, err
	}
	return doc, nil
}
