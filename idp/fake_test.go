package idp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeCredentialLifecycle(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	h, err := f.CreateCredential(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, h.UID)
	require.True(t, h.NewlyCreated)

	_, err = f.CreateCredential(ctx, "ada@example.com", "secret")
	require.True(t, IsCode(err, CodeEmailExists))

	got, err := f.VerifyCredential(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, h.UID, got.UID)

	_, err = f.VerifyCredential(ctx, "ada@example.com", "wrong")
	require.True(t, IsCode(err, CodeInvalidCredentials))

	_, err = f.VerifyCredential(ctx, "nobody@example.com", "secret")
	require.True(t, IsCode(err, CodeUserNotFound))
}

func TestFakeMintToken(t *testing.T) {
	f := NewFake()
	tok, err := f.MintToken(context.Background(), &UserHandle{UID: "u1"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(tok, "fake-token-"))

	f.MintEmpty = true
	tok, err = f.MintToken(context.Background(), &UserHandle{UID: "u1"})
	require.NoError(t, err)
	require.Empty(t, tok)
}

func TestFakeScriptedConsent(t *testing.T) {
	f := NewFake()

	_, err := f.TriggerFederatedConsent(context.Background())
	require.True(t, IsCode(err, CodeProviderFailure))

	f.ConsentErr = &Error{Code: CodeConsentDismissed, Detail: "access_denied"}
	_, err = f.TriggerFederatedConsent(context.Background())
	require.True(t, IsCode(err, CodeConsentDismissed))

	f.ConsentErr = nil
	f.ConsentHandle = &UserHandle{UID: "u2", Email: "fed@example.com", NewlyCreated: true}
	h, err := f.TriggerFederatedConsent(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u2", h.UID)
}
