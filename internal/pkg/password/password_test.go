package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hashed)

	assert.True(t, Verify("password123", hashed))
	assert.False(t, Verify("wrong-password", hashed))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("password123")
	require.NoError(t, err)
	second, err := Hash("password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashToken(t *testing.T) {
	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	c := HashToken("other-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	// sha256 hex digest
	assert.Len(t, a, 64)
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("password123"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(""))
}
