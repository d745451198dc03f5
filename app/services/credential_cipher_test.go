package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialCipherRoundTrip(t *testing.T) {
	cipher := NewCredentialCipher("relay-credentials-key")
	require.True(t, cipher.Enabled())

	sealed, err := cipher.Seal("ghaw82a43rs531dl")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, SealedCredentialPrefix))
	assert.NotContains(t, sealed, "ghaw82a43rs531dl")

	again, err := cipher.Seal("ghaw82a43rs531dl")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ between seals")

	opened, err := cipher.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ghaw82a43rs531dl", opened)

	resealed, err := cipher.Seal(sealed)
	require.NoError(t, err)
	assert.Equal(t, sealed, resealed)
}

func TestCredentialCipherPlaintextPassesThrough(t *testing.T) {
	cipher := NewCredentialCipher("relay-credentials-key")
	opened, err := cipher.Open("legacy-plain-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plain-token", opened)
}

func TestCredentialCipherWrongKey(t *testing.T) {
	sealed, err := NewCredentialCipher("key-a").Seal("token")
	require.NoError(t, err)

	_, err = NewCredentialCipher("key-b").Open(sealed)
	assert.ErrorIs(t, err, ErrCredentialCorrupted)

	_, err = NewCredentialCipher("").Open(sealed)
	assert.ErrorIs(t, err, ErrCredentialCorrupted)

	_, err = NewCredentialCipher("key-a").Open(SealedCredentialPrefix + "!!!")
	assert.ErrorIs(t, err, ErrCredentialCorrupted)
}

func TestCredentialCipherDisabled(t *testing.T) {
	cipher := NewCredentialCipher("")
	assert.False(t, cipher.Enabled())

	sealed, err := cipher.Seal("token")
	require.NoError(t, err)
	assert.Equal(t, "token", sealed)
}
