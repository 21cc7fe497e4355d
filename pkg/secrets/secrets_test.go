package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "covault/pkg/domain-errors"
)

func TestGenerate(t *testing.T) {
	t.Run("tokens are unique and URL-safe", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			tok, err := Generate()
			require.NoError(t, err)
			assert.False(t, seen[tok], "duplicate token generated")
			seen[tok] = true
			assert.NotContains(t, tok, "+")
			assert.NotContains(t, tok, "/")
			assert.NotContains(t, tok, "=")
		}
	})

	t.Run("tokens carry 256 bits of entropy", func(t *testing.T) {
		tok, err := Generate()
		require.NoError(t, err)
		// 32 bytes in raw URL base64 is 43 characters.
		assert.Len(t, tok, 43)
	})
}

func TestHashAndVerify(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		hash, err := Hash("hunter2hunter2")
		require.NoError(t, err)
		require.NoError(t, Verify("hunter2hunter2", hash))
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		hash, err := Hash("correct-password")
		require.NoError(t, err)
		err = Verify("wrong-password", hash)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty secret is rejected at hash time", func(t *testing.T) {
		_, err := Hash("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
