package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"privacy_rules/internal/domain"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid signature")

type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	signature := mac.Sum(nil)
	return hex.EncodeToString(signature)
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	expectedSignature := s.Sign(data)

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.Int("data_len", len(data)))
		return false, ErrInvalidSignature
	}

	return true, nil
}

// SignRules signs the canonical form of rules. Order is significant.
func (s *Signer) SignRules(rules []domain.Rule) string {
	return s.Sign(canonicalRules(rules))
}

func (s *Signer) VerifyRules(rules []domain.Rule, signature string) (bool, error) {
	return s.Verify(canonicalRules(rules), signature)
}

// HashValue is the replacement used by the hash scrub action.
func (s *Signer) HashValue(value string) string {
	return strings.ToUpper(s.Sign([]byte(value)))
}

func canonicalRules(rules []domain.Rule) []byte {
	var b strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&b, "%d:%s:%s:%d:%s\n", r.ID, r.Action, r.Data, len(r.From), r.From)
	}
	return []byte(b.String())
}
