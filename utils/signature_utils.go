package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix is the scheme prefix code-hosting services put in front
// of the hex-encoded HMAC digest.
const SignaturePrefix = "sha256="

// VerifyWebhookSignature checks an HMAC-SHA256 body signature using a
// constant-time comparison. The provided value must be hex encoded and
// prefixed with "sha256=".
func VerifyWebhookSignature(body []byte, secret string, provided string) bool {
	if secret == "" || provided == "" {
		return false
	}
	if !strings.HasPrefix(provided, SignaturePrefix) {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(provided), []byte(expected))
}

// SignWebhookBody produces the signature header value for a body.
// Used by tests and by the executor callback simulator.
func SignWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
