package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Verifier checks webhook delivery signatures. The platform signs the raw
// request body with HMAC-SHA256 and sends the base64 digest in a header, so
// verification must see the exact bytes as received, before any parsing.
type Verifier struct {
	defaultSecret string
}

// NewVerifier creates a verifier with the process-wide shared secret
func NewVerifier(defaultSecret string) *Verifier {
	return &Verifier{defaultSecret: defaultSecret}
}

// Verify reports whether signature matches body under the given secret. An
// empty secret falls back to the configured shared secret; if neither is set
// the delivery is rejected.
func (v *Verifier) Verify(body []byte, signature, secret string) bool {
	if secret == "" {
		secret = v.defaultSecret
	}
	return VerifySignature(body, signature, secret)
}

// VerifySignature checks one HMAC-SHA256 signature in constant time
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}
