// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")
}

func TestOneTimeToken(t *testing.T) {
	raw, hash, err := NewOneTimeToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.NotEqual(t, raw, hash)
	assert.True(t, CompareTokenHash(raw, hash))
	assert.False(t, CompareTokenHash(raw+"x", hash))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, EscapeLike(`50% off_now\`))
}
