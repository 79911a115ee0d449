package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Session is the server-side session artifact established by a successful
// sign-in. The cookie value itself is never stored; only its hash keys the
// record.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

var ErrNoSession = errors.New("no_session")

func sessionKey(cookie string) string {
	sum := sha256.Sum256([]byte(cookie))
	return "signon:session:" + hex.EncodeToString(sum[:])
}

// IssueSession mints a fresh session for userID and returns it with the
// opaque cookie value (32 random bytes, base58).
func (s *Service) IssueSession(ctx context.Context, userID string) (*Session, string, error) {
	if !s.useEphemeralStore() {
		return nil, "", errors.New("ephemeral store unavailable")
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}
	cookie := base58.Encode(raw)
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.ephemSetJSON(ctx, sessionKey(cookie), sess, s.sessionTTL); err != nil {
		return nil, "", err
	}
	return sess, cookie, nil
}

// ResolveSession returns the session for a cookie value, or ErrNoSession if
// it is unknown or expired.
func (s *Service) ResolveSession(ctx context.Context, cookie string) (*Session, error) {
	if cookie == "" {
		return nil, ErrNoSession
	}
	var sess Session
	ok, err := s.ephemGetJSON(ctx, sessionKey(cookie), &sess)
	if err != nil {
		return nil, err
	}
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// RevokeSession deletes the session for a cookie value. Unknown cookies are a
// no-op.
func (s *Service) RevokeSession(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	return s.ephemDel(ctx, sessionKey(cookie))
}

// SessionTTL reports the configured session lifetime.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }
