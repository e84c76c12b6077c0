package wassenger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidSignature is returned when a webhook body does not match its
// signature header.
var ErrInvalidSignature = errors.New("wassenger: invalid webhook signature")

const signaturePrefix = "sha256="

// Sign returns the hex HMAC-SHA256 of body under secret, with the sha256=
// prefix.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the HMAC-SHA256 of body
// under secret. The sha256= prefix is optional. An empty secret disables
// verification.
func VerifySignature(signature string, body []byte, secret string) bool {
	if secret == "" {
		return true
	}
	sig := strings.TrimPrefix(strings.TrimSpace(signature), signaturePrefix)
	got, err := hex.DecodeString(sig)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Verify is VerifySignature returning ErrInvalidSignature on mismatch.
func Verify(signature string, body []byte, secret string) error {
	if !VerifySignature(signature, body, secret) {
		return ErrInvalidSignature
	}
	return nil
}
