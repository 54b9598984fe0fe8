package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pw")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-pw", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pw"))
	assert.False(t, CheckPassword(hash, "wrong-pw"))
	assert.False(t, CheckPassword("", "s3cret-pw"))
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("same-input")
	require.NoError(t, err)
	h2, err := HashPassword("same-input")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
