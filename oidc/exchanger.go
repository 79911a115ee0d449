package oidckit

import (
	"context"
	"fmt"

	"github.com/zitadel/oidc/v2/pkg/client/rp"
	"github.com/zitadel/oidc/v2/pkg/oidc"
	"golang.org/x/oauth2"
)

// Claims is the minimal verified identity extracted from an upstream
// id_token. RawIDToken is what the idp client trades in for a provider
// credential.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	RawIDToken    string
}

// Exchange trades an authorization code for tokens using PKCE and verifies
// the id_token against the per-request nonce.
func Exchange(ctx context.Context, rpClient rp.RelyingParty, provider, code, verifier, nonce string) (Claims, error) {
	oauthConfig := rpClient.OAuthConfig()
	oauth2Token, err := oauthConfig.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return Claims{}, fmt.Errorf("token exchange failed for %s: %w", provider, err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Claims{}, fmt.Errorf("no id_token in response")
	}

	// The RP's built-in verifier does not know the per-request nonce.
	nonceVerifier := rp.NewIDTokenVerifier(
		rpClient.IDTokenVerifier().Issuer(),
		rpClient.IDTokenVerifier().ClientID(),
		rpClient.IDTokenVerifier().KeySet(),
		rp.WithNonce(func(context.Context) string { return nonce }),
	)
	idt, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, rawIDToken, nonceVerifier)
	if err != nil {
		return Claims{}, fmt.Errorf("id_token verification with nonce failed for %s: %w", provider, err)
	}
	if idt == nil {
		return Claims{}, fmt.Errorf("missing id_token claims")
	}
	return Claims{
		Subject:       idt.GetSubject(),
		Email:         idt.UserInfoEmail.Email,
		EmailVerified: bool(idt.UserInfoEmail.EmailVerified),
		Name:          idt.UserInfoProfile.Name,
		RawIDToken:    rawIDToken,
	}, nil
}
