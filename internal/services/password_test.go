package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := HashPassword("s3cret")
	require.NoError(t, err)
	second, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("s3cret", first))
	assert.True(t, CheckPassword("s3cret", second))
}

func TestHashPassword_EmptyInput(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckPassword_CorruptHashFailsClosed(t *testing.T) {
	assert.False(t, CheckPassword("s3cret", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("s3cret", ""))
}
