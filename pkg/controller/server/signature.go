package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/m-mizutani/knit/pkg/domain/types"
)

// VerifySignature checks the HMAC-SHA256 signature of a raw webhook body.
// The presented signature must be "sha256=" followed by the hex digest of
// the exact body bytes. A missing secret or signature is a plain false, not
// an error: verification is simply not possible then.
func VerifySignature(body []byte, secret types.WebhookSecret, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
