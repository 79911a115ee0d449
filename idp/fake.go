package idp

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/open-rails/signon/password"
)

type fakeAccount struct {
	uid          string
	displayName  string
	passwordHash string
}

// Fake is an in-memory Provider for tests and the devserver. It stores
// Argon2id password hashes the way the real provider would and mints
// predictable tokens of the form "fake-token-<uid>".
//
// ConsentHandle/ConsentErr script the federated consent flow; MintEmpty makes
// MintToken return an empty token, which the submit flow must treat as a
// failed sign-in.
type Fake struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount // keyed by email

	ConsentHandle *UserHandle
	ConsentErr    error
	MintEmpty     bool
}

func NewFake() *Fake {
	return &Fake{accounts: make(map[string]*fakeAccount)}
}

func (f *Fake) CreateCredential(ctx context.Context, email, pass string) (*UserHandle, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[email]; ok {
		return nil, &Error{Code: CodeEmailExists, Detail: "EMAIL_EXISTS"}
	}
	phc, err := password.HashArgon2id(pass)
	if err != nil {
		return nil, err
	}
	acct := &fakeAccount{uid: uuid.NewString(), passwordHash: phc}
	f.accounts[email] = acct
	return &UserHandle{UID: acct.uid, Email: email, NewlyCreated: true}, nil
}

func (f *Fake) VerifyCredential(ctx context.Context, email, pass string) (*UserHandle, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[email]
	if !ok {
		return nil, &Error{Code: CodeUserNotFound, Detail: "EMAIL_NOT_FOUND"}
	}
	match, err := password.VerifyArgon2id(acct.passwordHash, pass)
	if err != nil || !match {
		return nil, &Error{Code: CodeInvalidCredentials, Detail: "INVALID_PASSWORD"}
	}
	return &UserHandle{UID: acct.uid, Email: email, DisplayName: acct.displayName}, nil
}

func (f *Fake) TriggerFederatedConsent(ctx context.Context) (*UserHandle, error) {
	_ = ctx
	if f.ConsentErr != nil {
		return nil, f.ConsentErr
	}
	if f.ConsentHandle != nil {
		return f.ConsentHandle, nil
	}
	return nil, &Error{Code: CodeProviderFailure, Detail: "consent not scripted"}
}

func (f *Fake) MintToken(ctx context.Context, h *UserHandle) (string, error) {
	_ = ctx
	if f.MintEmpty {
		return "", nil
	}
	if h == nil || h.UID == "" {
		return "", &Error{Code: CodeProviderFailure, Detail: "nil user handle"}
	}
	return "fake-token-" + h.UID, nil
}
