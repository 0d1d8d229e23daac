package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenDenies(t *testing.T) {
	rl := NewRateLimiter(10)

	for i := 0; i < 10; i++ {
		require.True(t, rl.Allow("1.2.3.4"), "request %d within burst should pass", i)
	}
	require.False(t, rl.Allow("1.2.3.4"))

	// Separate clients have separate budgets.
	require.True(t, rl.Allow("5.6.7.8"))
}
