// Package idp is the client-side surface of the external identity provider.
//
// The provider owns credential storage and token minting; this package only
// wraps its account endpoints behind a small capability interface so the
// submit flow in core can be exercised against a fake implementation.
package idp

import (
	"context"
	"errors"
)

// Provider error codes. These are the recognized classifications surfaced to
// users; anything else is reported verbatim as a generic provider failure.
const (
	CodeEmailExists        = "email_exists"
	CodeWeakPassword       = "weak_password"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserNotFound       = "user_not_found"
	CodeConsentDismissed   = "consent_dismissed"
	CodeProviderFailure    = "provider_failure"
)

// Error is a classified provider error. Code is one of the Code* constants;
// Detail carries the provider's raw message when one was returned.
type Error struct {
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

// IsCode reports whether err is a provider *Error carrying code.
func IsCode(err error, code string) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == code
}

// UserHandle is the opaque identity returned by the provider after a
// credential is created or verified. It is borrowed for the duration of one
// submit; tokens are minted fresh through the owning Provider and never kept.
type UserHandle struct {
	UID          string
	Email        string
	DisplayName  string
	NewlyCreated bool

	// Raw token material held for MintToken. Unexported so callers cannot
	// persist it past the submit that produced the handle.
	idToken      string
	refreshToken string
}

// Provider is the capability surface the submit flow needs from the identity
// provider: create a credential, verify one, run the federated consent flow,
// and mint a short-lived bearer token for a handle.
type Provider interface {
	CreateCredential(ctx context.Context, email, password string) (*UserHandle, error)
	VerifyCredential(ctx context.Context, email, password string) (*UserHandle, error)
	TriggerFederatedConsent(ctx context.Context) (*UserHandle, error)
	MintToken(ctx context.Context, h *UserHandle) (string, error)
}

// Config holds the API-key scoped client settings. These values ship to
// browsers in the original deployment model and are not secret.
type Config struct {
	ProjectID     string
	APIKey        string
	Endpoint      string // account endpoints, e.g. https://identitytoolkit.googleapis.com
	TokenEndpoint string // token refresh endpoint, e.g. https://securetoken.googleapis.com
}
