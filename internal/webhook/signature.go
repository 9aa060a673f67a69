package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the payload signature so receivers can verify
// authenticity against their endpoint secret.
const SignatureHeader = "X-Dodo-Signature"

// Sign computes the signature header value for a payload: "sha256=" plus
// the hex HMAC-SHA256 of the raw body under the endpoint secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
