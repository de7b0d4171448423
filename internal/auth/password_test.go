package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify_Success(t *testing.T) {
	salt, hash, err := HashPassword("secret123")
	require.NoError(t, err)
	require.NotEmpty(t, salt)
	require.NotEmpty(t, hash)

	require.True(t, VerifyPassword("secret123", salt, hash))
}

func TestVerify_WrongPassword(t *testing.T) {
	salt, hash, err := HashPassword("secret123")
	require.NoError(t, err)

	require.False(t, VerifyPassword("secret124", salt, hash))
	require.False(t, VerifyPassword("", salt, hash))
}

func TestHash_SaltsDiffer(t *testing.T) {
	salt1, hash1, err := HashPassword("secret123")
	require.NoError(t, err)
	salt2, hash2, err := HashPassword("secret123")
	require.NoError(t, err)

	require.NotEqual(t, salt1, salt2)
	require.NotEqual(t, hash1, hash2)
}

func TestHash_DeterministicForSalt(t *testing.T) {
	salt, hash, err := HashPassword("secret123")
	require.NoError(t, err)

	again, err := hashWithSalt("secret123", salt)
	require.NoError(t, err)
	require.Equal(t, hash, again)
}
