package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", h)
	assert.True(t, IsHash(h))
	assert.True(t, CheckPassword(h, "secret123"))
	assert.False(t, CheckPassword(h, "secret124"))
}

func TestIsHash(t *testing.T) {
	t.Parallel()

	assert.False(t, IsHash("secret123"))
	assert.False(t, IsHash(""))
}
