package core

import (
	"context"
	stdlog "log"
	"sync"

	"github.com/open-rails/signon/idp"
)

// State is the flow's current phase. A flow always returns to StateIdle when
// a submission finishes, whatever the outcome.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Post-submit navigation targets.
const (
	PathHome   = "/"
	PathSignIn = "/sign-in"
)

// User-facing flow messages.
const (
	MsgSignUpOK         = "Account created successfully. Please sign in."
	MsgSignInOK         = "Signed in successfully."
	MsgSignInFailed     = "Sign in failed. Please try again."
	MsgConsentDismissed = "Sign in was cancelled."
)

// defaultDisplayName backfills federated identities whose provider profile
// carries no name.
const defaultDisplayName = "User"

// Notifier receives the flow's user-facing outcome messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Navigator receives the post-success navigation target.
type Navigator interface {
	Navigate(path string)
}

// Flow runs one credential submission end to end: validate, call the
// provider, hand off to the trusted actions, and report the outcome. A Flow
// rejects overlapping submissions; build a fresh one per request.
type Flow struct {
	formType FormType
	provider idp.Provider
	actions  Actions
	notify   Notifier
	nav      Navigator

	mu       sync.Mutex
	state    State
	inFlight bool
}

func NewFlow(form FormType, provider idp.Provider, actions Actions, notify Notifier, nav Navigator) *Flow {
	return &Flow{
		formType: form,
		provider: provider,
		actions:  actions,
		notify:   notify,
		nav:      nav,
		state:    StateIdle,
	}
}

// State reports the flow's current phase.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrSubmitInFlight
	}
	f.inFlight = true
	f.state = StateValidating
	return nil
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Flow) end() {
	f.mu.Lock()
	f.inFlight = false
	f.state = StateIdle
	f.mu.Unlock()
}

func (f *Flow) fail(msg string) {
	f.setState(StateFailed)
	f.notify.Error(msg)
}

func (f *Flow) succeed(msg, path string) {
	f.setState(StateSuccess)
	f.notify.Success(msg)
	f.nav.Navigate(path)
}

// Submit validates the credential and runs the form's submission path. A
// validation failure is returned as FieldErrors before anything leaves the
// process; all later failures are reported through the Notifier and return
// nil.
func (f *Flow) Submit(ctx context.Context, cred Credential) error {
	if err := f.begin(); err != nil {
		return err
	}
	defer f.end()

	if fe := Validate(f.formType, cred); fe != nil {
		f.setState(StateFailed)
		return fe
	}
	f.setState(StateSubmitting)

	if f.formType == FormSignUp {
		f.submitSignUp(ctx, cred)
	} else {
		f.submitSignIn(ctx, cred)
	}
	return nil
}

func (f *Flow) submitSignUp(ctx context.Context, cred Credential) {
	h, err := f.provider.CreateCredential(ctx, cred.Email, cred.Password)
	if err != nil {
		f.fail(providerMessage(err))
		return
	}

	res, err := f.actions.SignUp(ctx, SignUpInput{
		UID:      h.UID,
		Name:     cred.Name,
		Email:    cred.Email,
		Password: cred.Password,
	})
	if err != nil {
		f.fail(providerMessage(err))
		return
	}
	if !res.Success {
		f.fail(res.Message)
		return
	}
	f.succeed(MsgSignUpOK, PathSignIn)
}

func (f *Flow) submitSignIn(ctx context.Context, cred Credential) {
	h, err := f.provider.VerifyCredential(ctx, cred.Email, cred.Password)
	if err != nil {
		f.fail(providerMessage(err))
		return
	}

	token, err := f.provider.MintToken(ctx, h)
	if err != nil || token == "" {
		// No token, no remote call: the action would have nothing to verify.
		f.fail(MsgSignInFailed)
		return
	}

	f.callSignIn(ctx, cred.Email, token)
	f.succeed(MsgSignInOK, PathHome)
}

// SubmitFederated runs the consent-based sign-in path: the provider-hosted
// consent screen replaces the credential form, and a brand-new identity is
// registered on the fly before signing in.
func (f *Flow) SubmitFederated(ctx context.Context) error {
	if err := f.begin(); err != nil {
		return err
	}
	defer f.end()
	f.setState(StateSubmitting)

	h, err := f.provider.TriggerFederatedConsent(ctx)
	if err != nil {
		if idp.IsCode(err, idp.CodeConsentDismissed) {
			f.fail(MsgConsentDismissed)
			return nil
		}
		f.fail(providerMessage(err))
		return nil
	}

	token, err := f.provider.MintToken(ctx, h)
	if err != nil || token == "" {
		f.fail(MsgSignInFailed)
		return nil
	}

	if h.NewlyCreated {
		name := h.DisplayName
		if name == "" {
			name = defaultDisplayName
		}
		res, err := f.actions.SignUp(ctx, SignUpInput{
			UID:   h.UID,
			Name:  name,
			Email: h.Email,
		})
		// Registration is best-effort here: the provider credential exists
		// either way, so surface the problem and continue to sign-in.
		switch {
		case err != nil:
			stdlog.Printf("[signon/flow] federated sign-up action failed uid=%s: %v", h.UID, err)
			f.notify.Error(providerMessage(err))
		case !res.Success:
			stdlog.Printf("[signon/flow] federated sign-up action rejected uid=%s: %s", h.UID, res.Message)
			f.notify.Error(res.Message)
		}
	}

	f.callSignIn(ctx, h.Email, token)
	f.succeed(MsgSignInOK, PathHome)
	return nil
}

// callSignIn runs the trusted sign-in action. Its result does not gate the
// flow outcome; a failure is logged so operators can spot the divergence.
func (f *Flow) callSignIn(ctx context.Context, email, token string) {
	res, err := f.actions.SignIn(ctx, SignInInput{Email: email, IDToken: token})
	switch {
	case err != nil:
		stdlog.Printf("[signon/flow] sign-in action failed: %v (treated as success)", err)
	case !res.Success:
		stdlog.Printf("[signon/flow] sign-in action rejected: %s (treated as success)", res.Message)
	}
}

func providerMessage(err error) string {
	return "There was an error: " + err.Error()
}
