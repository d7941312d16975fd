package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerID_StableAcrossCalls(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.ServerID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := s.ServerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
