package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"reviewgate/internal/domain"
)

const signatureHeader = "X-Hub-Signature-256"

// Verifier checks GitHub's HMAC-SHA256 payload signatures. Each registered
// repository may carry its own secret; fallback covers repositories without
// one.
type Verifier struct {
	fallback string
}

func NewVerifier(fallbackSecret string) *Verifier {
	return &Verifier{fallback: fallbackSecret}
}

// Header returns the request header the signature travels in.
func (v *Verifier) Header() string {
	return signatureHeader
}

// Verify checks the signature against the repository secret, or the global
// fallback when the repository has none.
func (v *Verifier) Verify(body []byte, signature, repoSecret string) error {
	secret := repoSecret
	if secret == "" {
		secret = v.fallback
	}
	if secret == "" {
		return domain.NewPermanentError("no webhook secret configured")
	}
	if signature == "" {
		return domain.NewValidationError("missing webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.NewValidationError("webhook signature mismatch")
	}
	return nil
}
