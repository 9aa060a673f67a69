package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRetrySchedule(t *testing.T) {
	cases := []struct {
		attempts int
		delay    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 2 * time.Minute},
		{2, 10 * time.Minute},
		{3, time.Hour},
	}

	for _, tc := range cases {
		before := time.Now().UTC()
		at, ok := NextRetry(tc.attempts)
		after := time.Now().UTC()

		require.True(t, ok, "attempts=%d should have a next retry", tc.attempts)
		assert.False(t, at.Before(before.Add(tc.delay)), "attempts=%d fired too early", tc.attempts)
		assert.False(t, at.After(after.Add(tc.delay)), "attempts=%d fired too late", tc.attempts)
	}
}

func TestNextRetryExhausted(t *testing.T) {
	for _, attempts := range []int{4, 5, 100} {
		_, ok := NextRetry(attempts)
		assert.False(t, ok, "attempts=%d must be exhausted", attempts)
	}
}
