package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeyService() *KeyService {
	return &KeyService{secret: []byte("test-server-secret")}
}

func TestGenerateKeyFormat(t *testing.T) {
	k := newTestKeyService()

	raw, hash, err := k.GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "dodo_live_"))
	assert.Len(t, raw, len("dodo_live_")+48)
	for _, c := range strings.TrimPrefix(raw, "dodo_live_") {
		assert.True(t,
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'),
			"unexpected character %q in key", c)
	}

	// 32-byte HMAC-SHA256, hex encoded.
	assert.Len(t, hash, 64)
	_, err = hex.DecodeString(hash)
	assert.NoError(t, err)
}

func TestGenerateKeyUnique(t *testing.T) {
	k := newTestKeyService()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, _, err := k.GenerateKey()
		require.NoError(t, err)
		require.False(t, seen[raw], "duplicate raw key generated")
		seen[raw] = true
	}
}

func TestHashKeyMatchesHMAC(t *testing.T) {
	k := newTestKeyService()

	mac := hmac.New(sha256.New, []byte("test-server-secret"))
	mac.Write([]byte("dodo_live_abc"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, k.HashKey("dodo_live_abc"))
	// Issuance and verification must agree on the hash.
	assert.Equal(t, k.HashKey("dodo_live_abc"), k.HashKey("dodo_live_abc"))
}

func TestHashKeyDependsOnSecret(t *testing.T) {
	a := &KeyService{secret: []byte("secret-a")}
	b := &KeyService{secret: []byte("secret-b")}
	assert.NotEqual(t, a.HashKey("dodo_live_x"), b.HashKey("dodo_live_x"))
}
