package core

import (
	"context"
	"errors"
	stdlog "log"
	"strings"
	"time"
)

// Action result messages. The flow shows these verbatim, so they are written
// for end users.
const (
	msgUserExists       = "User already exists. Please sign in."
	msgCreateFailed     = "Failed to create account. Please try again."
	msgAccountCreated   = "Account created successfully."
	msgUserMissing      = "User does not exist. Create an account instead."
	msgSignInActionFail = "Failed to log into account. Please try again."
	msgSignedIn         = "Signed in successfully."
)

// ErrUserExists is returned by UserStore.CreateUser on an id or email
// conflict.
var ErrUserExists = errors.New("user_exists")

type UserStatus string

const (
	// UserPending marks a record whose provider credential exists but whose
	// first sign-in has not completed yet. The purge job sweeps stale ones.
	UserPending UserStatus = "pending"
	UserActive  UserStatus = "active"
)

// UserRecord is the application-side user row keyed by the provider UID.
type UserRecord struct {
	ID        string
	Name      string
	Email     string
	Status    UserStatus
	CreatedAt time.Time
}

// UserStore persists user records. Lookups return (nil, nil) when no record
// exists.
type UserStore interface {
	CreateUser(ctx context.Context, u *UserRecord) error
	GetUser(ctx context.Context, id string) (*UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	SetUserStatus(ctx context.Context, id string, status UserStatus) error
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	DeleteUser(ctx context.Context, id string) error
}

// Service implements the trusted server half of the flow: the SignUp and
// SignIn actions, token verification, and session issuance.
type Service struct {
	verifier TokenVerifier
	users    UserStore

	ephemeralStore EphemeralStore
	ephemeralMode  EphemeralMode
	sessionTTL     time.Duration
}

// NewService builds a Service around the admin token verifier. Attach storage
// with the With* methods.
func NewService(verifier TokenVerifier) *Service {
	return &Service{
		verifier:      verifier,
		ephemeralMode: EphemeralMemory,
		sessionTTL:    14 * 24 * time.Hour,
	}
}

func (s *Service) WithUserStore(us UserStore) *Service { s.users = us; return s }

func (s *Service) WithSessionTTL(d time.Duration) *Service {
	if d > 0 {
		s.sessionTTL = d
	}
	return s
}

// Users exposes the attached store (may be nil); used by the purge job.
func (s *Service) Users() UserStore { return s.users }

// SignUp persists the user record for a provider credential created by the
// flow. The provider account already exists at this point; a failure here is
// the accepted inconsistency the purge job reconciles.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (ActionResult, error) {
	if s.users == nil {
		return ActionResult{Success: false, Message: msgCreateFailed}, errors.New("user store not configured")
	}
	uid := strings.TrimSpace(in.UID)
	email := normalizeEmail(in.Email)
	if uid == "" || email == "" {
		return ActionResult{Success: false, Message: msgCreateFailed}, nil
	}

	existing, err := s.users.GetUser(ctx, uid)
	if err != nil {
		stdlog.Printf("[signon/actions] sign-up lookup failed uid=%s: %v", uid, err)
		return ActionResult{Success: false, Message: msgCreateFailed}, nil
	}
	if existing != nil {
		return ActionResult{Success: false, Message: msgUserExists}, nil
	}

	rec := &UserRecord{
		ID:        uid,
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Status:    UserPending,
		CreatedAt: time.Now(),
	}
	if err := s.users.CreateUser(ctx, rec); err != nil {
		if errors.Is(err, ErrUserExists) {
			return ActionResult{Success: false, Message: msgUserExists}, nil
		}
		stdlog.Printf("[signon/actions] sign-up create failed uid=%s: %v", uid, err)
		return ActionResult{Success: false, Message: msgCreateFailed}, nil
	}
	return ActionResult{Success: true, Message: msgAccountCreated}, nil
}

// SignIn verifies the bearer token and finalizes the session server-side.
// The session cookie value is dropped here; HTTP callers use
// SignInWithSession to set it.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (ActionResult, error) {
	res, _, err := s.SignInWithSession(ctx, in)
	return res, err
}

// SignInWithSession verifies the token against the admin verifier, activates
// a pending record, and mints a session. The returned string is the opaque
// cookie value; empty when the result is not a success.
func (s *Service) SignInWithSession(ctx context.Context, in SignInInput) (ActionResult, string, error) {
	if s.verifier == nil {
		return ActionResult{Success: false, Message: msgSignInActionFail}, "", errors.New("verifier not configured")
	}
	claims, err := s.verifier.VerifyIDToken(ctx, in.IDToken)
	if err != nil {
		stdlog.Printf("[signon/actions] token verification failed: %v", err)
		return ActionResult{Success: false, Message: msgSignInActionFail}, "", nil
	}
	if claims.Email != "" && normalizeEmail(claims.Email) != normalizeEmail(in.Email) {
		stdlog.Printf("[signon/actions] token email mismatch uid=%s", claims.UID)
		return ActionResult{Success: false, Message: msgSignInActionFail}, "", nil
	}

	if s.users != nil {
		u, err := s.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
		if err != nil {
			stdlog.Printf("[signon/actions] sign-in lookup failed uid=%s: %v", claims.UID, err)
			return ActionResult{Success: false, Message: msgSignInActionFail}, "", nil
		}
		if u == nil {
			return ActionResult{Success: false, Message: msgUserMissing}, "", nil
		}
		if u.Status == UserPending {
			if err := s.users.SetUserStatus(ctx, u.ID, UserActive); err != nil {
				stdlog.Printf("[signon/actions] activate failed uid=%s: %v", u.ID, err)
			}
		}
	}

	_, cookie, err := s.IssueSession(ctx, claims.UID)
	if err != nil {
		stdlog.Printf("[signon/actions] session issue failed uid=%s: %v", claims.UID, err)
		return ActionResult{Success: false, Message: msgSignInActionFail}, "", nil
	}
	return ActionResult{Success: true, Message: msgSignedIn}, cookie, nil
}
