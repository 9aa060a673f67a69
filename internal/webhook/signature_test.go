package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	body := []byte(`{"event":"transaction.succeeded"}`)

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign("s3cret", body))
}

func TestSignDependsOnSecretAndBody(t *testing.T) {
	body := []byte(`{}`)
	assert.NotEqual(t, Sign("a", body), Sign("b", body))
	assert.NotEqual(t, Sign("a", []byte(`{}`)), Sign("a", []byte(`{ }`)))
}
