// Package oidckit drives the provider-hosted federated consent flow: it
// builds authorization URLs with PKCE and exchanges callback codes for a
// verified identity token that the idp client can trade in.
package oidckit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/zitadel/oidc/v2/pkg/client/rp"
)

// RPClient holds issuer-based OIDC settings for a single upstream identity
// provider.
type RPClient struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Manager builds relying-party clients and authorization URLs.
type Manager struct{ providers map[string]RPClient }

func NewManager(cfgs map[string]RPClient) *Manager { return &Manager{providers: cfgs} }

// Provider returns the configured RPClient for a provider slug (if present).
func (m *Manager) Provider(name string) (RPClient, bool) { pc, ok := m.providers[name]; return pc, ok }

// Begin returns an authorization URL for the given provider using PKCE and
// caller-supplied state/nonce. The caller persists state+verifier in a
// StateCache and redirects the user to the returned URL.
func (m *Manager) Begin(ctx context.Context, provider, state, nonce, codeChallenge, redirectURI string) (string, error) {
	pc, ok := m.providers[provider]
	if !ok {
		return "", errors.New("unknown provider")
	}
	rpClient, err := m.rp(pc, redirectURI)
	if err != nil {
		return "", err
	}
	opts := []rp.AuthURLOpt{
		rp.AuthURLOpt(rp.WithURLParam("nonce", nonce)),
		rp.WithCodeChallenge(codeChallenge),
		rp.AuthURLOpt(rp.WithURLParam("code_challenge_method", "S256")),
	}
	return rp.AuthURL(state, rpClient, opts...), nil
}

func (m *Manager) rp(pc RPClient, redirectURI string) (rp.RelyingParty, error) {
	return rp.NewRelyingPartyOIDC(pc.Issuer, pc.ClientID, pc.ClientSecret, redirectURI, pc.Scopes)
}

// GetRPWithRedirect exposes the relying party for a configured provider.
func (m *Manager) GetRPWithRedirect(ctx context.Context, provider, redirectURI string) (rp.RelyingParty, error) {
	pc, ok := m.providers[provider]
	if !ok {
		return nil, errors.New("unknown provider")
	}
	return m.rp(pc, redirectURI)
}

// GeneratePKCE returns a verifier and S256 challenge suitable for the auth
// request.
func GeneratePKCE() (verifier string, challenge string, err error) {
	v := make([]byte, 32)
	if _, err = rand.Read(v); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(v)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}
