package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	digest, err := HashPassword("bogea123")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotEqual(t, "bogea123", digest)

	assert.True(t, VerifyPassword("bogea123", digest))
}

func TestVerifyPasswordWrongPassword(t *testing.T) {
	digest, err := HashPassword("bogea123")
	require.NoError(t, err)

	assert.False(t, VerifyPassword("bogea124", digest))
	assert.False(t, VerifyPassword("", digest))
}

func TestVerifyPasswordMutatedDigest(t *testing.T) {
	digest, err := HashPassword("bogea123")
	require.NoError(t, err)

	mutated := []byte(digest)
	mutated[len(mutated)-1] ^= 0x01
	assert.False(t, VerifyPassword("bogea123", string(mutated)))
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	assert.False(t, VerifyPassword("bogea123", "not-a-bcrypt-digest"))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("bogea123")
	require.NoError(t, err)
	second, err := HashPassword("bogea123")
	require.NoError(t, err)

	// Two hashes of the same password differ because the salt differs.
	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword("bogea123", first))
	assert.True(t, VerifyPassword("bogea123", second))
}
