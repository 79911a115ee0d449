package oidckit

import "context"

// StateCache stores ephemeral consent state/PKCE data between the begin
// redirect and the callback.
type StateCache interface {
	Put(ctx context.Context, state string, data StateData) error
	Get(ctx context.Context, state string) (StateData, bool, error)
	Del(ctx context.Context, state string) error
}

// StateData is what is persisted for a pending federated consent.
type StateData struct {
	Provider    string
	Verifier    string
	Nonce       string
	RedirectURI string
	UI          string // "popup" to trigger popup HTML callback; else redirect
	PopupNonce  string // echoed in popup postMessage for opener validation
}
