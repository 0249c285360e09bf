package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterExhaustsBurst(t *testing.T) {
	l := NewRatelimiter(3, time.Second)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow(), "call %d should be within the initial allowance", i)
	}
	require.False(t, l.Allow(), "allowance exhausted")
	require.False(t, l.Allow(), "still exhausted without refill")
}

func TestRateLimiterRefills(t *testing.T) {
	l := NewRatelimiter(1, time.Second)
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	// Rewind the last tick instead of sleeping: two elapsed seconds at one
	// token per second refill two tokens.
	l.lastTick = time.Now().Unix() - 2

	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())
}

func TestRateLimiterRefillCapsAtBurst(t *testing.T) {
	l := NewRatelimiter(1, time.Second)
	l.lastTick = time.Now().Unix() - 3600

	for i := int32(0); i < burstLimit; i++ {
		require.True(t, l.Allow(), "token %d should fit within the burst cap", i)
	}
	require.False(t, l.Allow())
}

func TestRateLimiterConcurrentAccess(t *testing.T) {
	l := NewRatelimiter(100, time.Minute)

	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		go func() { allowed <- l.Allow() }()
	}

	granted := 0
	for i := 0; i < 200; i++ {
		if <-allowed {
			granted++
		}
	}
	require.Equal(t, 100, granted)
}
