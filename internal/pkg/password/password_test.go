package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Secret#1", 4)
	require.NoError(t, err)

	assert.True(t, Verify("Secret#1", hash))
	assert.False(t, Verify("secret#1", hash))
}

func TestIsStrong(t *testing.T) {
	cases := map[string]bool{
		"Ab1!":       false,
		"abcdef1!":   false,
		"ABCDEF1!":   false,
		"Abcdefg!":   false,
		"Abcdef12":   false,
		"Abcde1!":    true,
		"Passw0rd$$": true,
	}
	for pw, want := range cases {
		assert.Equal(t, want, IsStrong(pw), pw)
	}
}
