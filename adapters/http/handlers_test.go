package authhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-rails/signon/core"
	"github.com/open-rails/signon/idp"
	oidckit "github.com/open-rails/signon/oidc"
	memorystore "github.com/open-rails/signon/storage/memory"
)

// fakeVerifier accepts the fake provider's "fake-token-<uid>" tokens.
type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*core.IdentityClaims, error) {
	uid, ok := strings.CutPrefix(idToken, "fake-token-")
	if !ok || uid == "" {
		return nil, errors.New("invalid_token")
	}
	return &core.IdentityClaims{UID: uid}, nil
}

type denyLimiter struct{}

func (denyLimiter) AllowNamed(bucket, key string) (bool, error) { return false, nil }

func newTestService(t *testing.T) (*Service, *idp.Fake, *memorystore.Users) {
	t.Helper()
	fake := idp.NewFake()
	users := memorystore.NewUsers()
	svc := core.NewService(fakeVerifier{}).
		WithUserStore(users).
		WithEphemeralStore(memorystore.NewKV(), core.EphemeralMemory)
	s := NewService(svc, fake).
		WithBaseURL("http://app.test").
		DisableRateLimiter()
	return s, fake, users
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeFlow(t *testing.T, w *httptest.ResponseRecorder) flowResponse {
	t.Helper()
	var fr flowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fr))
	return fr
}

func TestSignUpThenSignIn(t *testing.T) {
	s, _, users := newTestService(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/auth/sign-up",
		`{"name":"Ada","email":"ada@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	fr := decodeFlow(t, w)
	require.True(t, fr.Success)
	require.Equal(t, core.MsgSignUpOK, fr.Message)
	require.Equal(t, core.PathSignIn, fr.Redirect)

	u, err := users.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, core.UserPending, u.Status)

	w = doJSON(t, h, http.MethodPost, "/auth/sign-in",
		`{"email":"ada@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	fr = decodeFlow(t, w)
	require.True(t, fr.Success)
	require.Equal(t, core.PathHome, fr.Redirect)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session, "expected a session cookie")
	require.NotEmpty(t, session.Value)
	require.True(t, session.HttpOnly)

	u, err = users.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, core.UserActive, u.Status)

	w = doJSON(t, h, http.MethodDelete, "/auth/session", "", session)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = s.Core().ResolveSession(context.Background(), session.Value)
	require.ErrorIs(t, err, core.ErrNoSession)
}

func TestSignUpValidationFailure(t *testing.T) {
	s, _, _ := newTestService(t)

	w := doJSON(t, s.Handler(), http.MethodPost, "/auth/sign-up",
		`{"name":"ab","email":"nope","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var vr validationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vr))
	require.Equal(t, "validation_failed", vr.Error)
	require.Equal(t, "name_too_short", vr.Fields["name"])
	require.Equal(t, "invalid_email", vr.Fields["email"])
	require.Equal(t, "password_too_short", vr.Fields["password"])
}

func TestSignUpRejectsMalformedBody(t *testing.T) {
	s, _, _ := newTestService(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/auth/sign-up", `{"name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/auth/sign-up",
		`{"name":"Ada","email":"ada@example.com","password":"secret","extra":true}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignUpDuplicateEmailSurfacesProviderError(t *testing.T) {
	s, _, _ := newTestService(t)
	h := s.Handler()

	body := `{"name":"Ada","email":"ada@example.com","password":"secret"}`
	w := doJSON(t, h, http.MethodPost, "/auth/sign-up", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodPost, "/auth/sign-up", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fr := decodeFlow(t, w)
	require.False(t, fr.Success)
	require.Contains(t, fr.Message, "There was an error:")
	require.Empty(t, fr.Redirect)
}

func TestSignInWrongPassword(t *testing.T) {
	s, fake, _ := newTestService(t)
	_, err := fake.CreateCredential(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	w := doJSON(t, s.Handler(), http.MethodPost, "/auth/sign-in",
		`{"email":"ada@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	fr := decodeFlow(t, w)
	require.False(t, fr.Success)
	require.Empty(t, w.Result().Cookies())
}

func TestRateLimitedRequestsAreRejected(t *testing.T) {
	s, _, _ := newTestService(t)
	s.WithRateLimiter(denyLimiter{})

	w := doJSON(t, s.Handler(), http.MethodPost, "/auth/sign-in",
		`{"email":"ada@example.com","password":"secret"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSessionDeleteWithoutCookie(t *testing.T) {
	s, _, _ := newTestService(t)
	w := doJSON(t, s.Handler(), http.MethodDelete, "/auth/session", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFederatedStartNotConfigured(t *testing.T) {
	s, _, _ := newTestService(t)
	w := doJSON(t, s.Handler(), http.MethodGet, "/auth/federated/google", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "federated_not_configured")
}

func withConsent(s *Service) *Service {
	return s.WithConsentProviders(map[string]oidckit.RPClient{
		"google": {
			Issuer:   "https://accounts.google.com",
			ClientID: "client-id",
			Scopes:   []string{"openid", "email"},
		},
	})
}

func TestFederatedStartUnknownProvider(t *testing.T) {
	s, _, _ := newTestService(t)
	withConsent(s)

	w := doJSON(t, s.Handler(), http.MethodGet, "/auth/federated/github", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unknown_provider")
}

func TestFederatedCallbackRequiresKnownState(t *testing.T) {
	s, _, _ := newTestService(t)
	withConsent(s)
	h := s.Handler()

	w := doJSON(t, h, http.MethodGet, "/auth/federated/google/callback", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_request")

	w = doJSON(t, h, http.MethodGet, "/auth/federated/google/callback?state=bogus", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_state")
}

func TestFederatedCallbackStateIsSingleUse(t *testing.T) {
	s, _, _ := newTestService(t)
	withConsent(s)
	h := s.Handler()

	require.NoError(t, s.states.Put(context.Background(), "st1", oidckit.StateData{Provider: "google"}))

	req := httptest.NewRequest(http.MethodGet, "/auth/federated/google/callback?state=st1&error=server_error", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Replaying the same state fails.
	w2 := doJSON(t, h, http.MethodGet, "/auth/federated/google/callback?state=st1&error=server_error", "")
	require.Equal(t, http.StatusBadRequest, w2.Code)
	require.Contains(t, w2.Body.String(), "invalid_state")
}

func TestFederatedCallbackAccessDeniedPopup(t *testing.T) {
	s, _, _ := newTestService(t)
	withConsent(s)
	h := s.Handler()

	require.NoError(t, s.states.Put(context.Background(), "st2", oidckit.StateData{
		Provider:   "google",
		UI:         "popup",
		PopupNonce: "pn-1",
	}))

	w := doJSON(t, h, http.MethodGet, "/auth/federated/google/callback?state=st2&error=access_denied", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	require.Contains(t, body, popupMessageType)
	require.Contains(t, body, core.MsgConsentDismissed)
	require.Contains(t, body, "pn-1")
	require.Contains(t, body, `"http://app.test"`)
	require.Contains(t, body, `"success":false`)
}

func TestFederatedCallbackProviderErrorJSON(t *testing.T) {
	s, _, _ := newTestService(t)
	withConsent(s)
	h := s.Handler()

	require.NoError(t, s.states.Put(context.Background(), "st3", oidckit.StateData{Provider: "google"}))

	req := httptest.NewRequest(http.MethodGet, "/auth/federated/google/callback?state=st3&error=temporarily_unavailable", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	fr := decodeFlow(t, w)
	require.False(t, fr.Success)
	require.Contains(t, fr.Message, "There was an error:")
}
