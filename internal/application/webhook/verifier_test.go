package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":5000001,"total_price":"1499.00"}`)
	secret := "whsec_test"

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.True(t, VerifySignature(body, sign(body, secret), secret))
	})

	t.Run("tolerates header whitespace", func(t *testing.T) {
		assert.True(t, VerifySignature(body, " "+sign(body, secret)+"\n", secret))
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		signature := sign(body, secret)
		tampered := []byte(`{"id":5000001,"total_price":"0.01"}`)
		assert.False(t, VerifySignature(tampered, signature, secret))
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		assert.False(t, VerifySignature(body, sign(body, "other"), secret))
	})

	t.Run("rejects when no signature is sent", func(t *testing.T) {
		assert.False(t, VerifySignature(body, "", secret))
	})

	t.Run("rejects when no secret is configured", func(t *testing.T) {
		assert.False(t, VerifySignature(body, sign(body, ""), ""))
	})
}

func TestVerifier_Verify(t *testing.T) {
	body := []byte(`{"id":1}`)

	t.Run("uses the override secret when given", func(t *testing.T) {
		verifier := NewVerifier("shared")
		assert.True(t, verifier.Verify(body, sign(body, "tenant-own"), "tenant-own"))
		assert.False(t, verifier.Verify(body, sign(body, "shared"), "tenant-own"))
	})

	t.Run("falls back to the shared secret", func(t *testing.T) {
		verifier := NewVerifier("shared")
		assert.True(t, verifier.Verify(body, sign(body, "shared"), ""))
	})

	t.Run("rejects everything with no secret at all", func(t *testing.T) {
		verifier := NewVerifier("")
		assert.False(t, verifier.Verify(body, sign(body, ""), ""))
	})
}
