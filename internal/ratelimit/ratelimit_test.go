package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenBlocks(t *testing.T) {
	rl := New(1, 2)
	defer rl.Stop()

	passed := 0
	for i := 0; i < 5; i++ {
		if rl.Allow("host") {
			passed++
		}
	}
	assert.Equal(t, 2, passed)
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("api.perplexity.ai"))
	assert.False(t, rl.Allow("api.perplexity.ai"))
	assert.True(t, rl.Allow("other.example.com"))
}

func TestWait_RespectsContextCancellation(t *testing.T) {
	rl := New(0.001, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("host"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx, "host")
	assert.Error(t, err)
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(1, 1)

	rl.Stop()
	rl.Stop()
}
