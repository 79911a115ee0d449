package core

import "context"

// SignUpInput carries the provider-issued identity into the SignUp action.
type SignUpInput struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// SignInInput carries the minted bearer token into the SignIn action.
type SignInInput struct {
	Email   string `json:"email"`
	IDToken string `json:"id_token"`
}

// ActionResult is the outcome an action reports back to the flow. Message is
// user-facing and shown verbatim.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Actions is the trusted server side the flow hands off to after the
// provider calls finish. *Service implements it; tests substitute fakes.
type Actions interface {
	SignUp(ctx context.Context, in SignUpInput) (ActionResult, error)
	SignIn(ctx context.Context, in SignInInput) (ActionResult, error)
}

// IdentityClaims is the verified identity extracted from a provider ID token.
type IdentityClaims struct {
	UID           string
	Email         string
	Name          string
	EmailVerified bool
}

// TokenVerifier checks a provider ID token and returns its claims. The admin
// package provides the production implementation.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*IdentityClaims, error)
}
