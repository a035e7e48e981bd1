package provisioning

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		pw, err := GeneratePassword()
		require.NoError(t, err)

		assert.Len(t, pw, 16)
		assert.True(t, strings.ContainsAny(pw, lowerChars), "missing lowercase: %s", pw)
		assert.True(t, strings.ContainsAny(pw, upperChars), "missing uppercase: %s", pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), "missing digit: %s", pw)
		assert.True(t, strings.ContainsAny(pw, symbolChars), "missing symbol: %s", pw)

		assert.False(t, seen[pw], "duplicate password generated")
		seen[pw] = true
	}
}
