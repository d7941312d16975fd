package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id, err := Generate("sec")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "sec-"))
	// NanoID default length is 21 characters plus prefix and dash.
	assert.Len(t, id, len("sec-")+21)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id, err := Generate("sec")
		require.NoError(t, err)
		assert.False(t, seen[id], "generated duplicate ID: %s", id)
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate("cap")
		assert.True(t, strings.HasPrefix(id, "cap-"))
	})
}
