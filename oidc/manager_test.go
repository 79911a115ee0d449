package oidckit

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePKCE(t *testing.T) {
	verifier, challenge, err := GeneratePKCE()
	require.NoError(t, err)
	require.NotEmpty(t, verifier)

	sum := sha256.Sum256([]byte(verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)

	v2, _, err := GeneratePKCE()
	require.NoError(t, err)
	require.NotEqual(t, verifier, v2)
}

func TestManagerProviderLookup(t *testing.T) {
	m := NewManager(map[string]RPClient{
		"google": {Issuer: "https://accounts.google.com", ClientID: "cid"},
	})

	pc, ok := m.Provider("google")
	require.True(t, ok)
	require.Equal(t, "cid", pc.ClientID)

	_, ok = m.Provider("github")
	require.False(t, ok)

	_, err := m.Begin(context.Background(), "github", "st", "n", "ch", "https://app/cb")
	require.Error(t, err)
}
