// Package authhttp mounts the sign-in/sign-up surface on net/http.
package authhttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zitadel/oidc/v2/pkg/client/rp"

	"github.com/open-rails/signon/core"
	"github.com/open-rails/signon/idp"
	oidckit "github.com/open-rails/signon/oidc"
	memorystore "github.com/open-rails/signon/storage/memory"
	redisstore "github.com/open-rails/signon/storage/redis"
)

// SessionCookieName carries the opaque session value issued by a successful
// sign-in.
const SessionCookieName = "signon_session"

// Service wraps core.Service and the provider client with net/http mounting
// helpers.
type Service struct {
	svc      *core.Service
	provider idp.Provider
	client   *idp.Client // non-nil when provider is the REST client; used for federated exchange

	rl       RateLimiter
	clientIP ClientIPFunc

	consentMgr *oidckit.Manager
	states     oidckit.StateCache
	baseURL    string
	exchange   exchangeFunc
}

// exchangeFunc matches oidckit.Exchange; replaceable in tests.
type exchangeFunc func(ctx context.Context, rpClient rp.RelyingParty, provider, code, verifier, nonce string) (oidckit.Claims, error)

// NewService wires the HTTP adapter. provider handles the credential calls;
// pass the same value to WithIDPClient when it is the REST client so the
// federated callback can trade upstream tokens in.
func NewService(svc *core.Service, provider idp.Provider) *Service {
	return &Service{
		svc:      svc,
		provider: provider,
		rl:       NewMemoryLimiter(DefaultRateLimits()),
		clientIP: DefaultClientIP(),
		states:   memorystore.NewStateCache(15 * time.Minute),
		exchange: oidckit.Exchange,
	}
}

func (s *Service) WithIDPClient(c *idp.Client) *Service { s.client = c; return s }

func (s *Service) WithRedis(rd *redis.Client) *Service {
	if rd != nil {
		s.svc = s.svc.WithEphemeralStore(redisstore.NewKV(rd), core.EphemeralRedis)
		s.states = redisstore.NewStateCache(rd, "signon:consent:state:", 15*time.Minute)
	}
	return s
}

// WithConsentProviders configures the federated consent endpoints.
func (s *Service) WithConsentProviders(cfgs map[string]oidckit.RPClient) *Service {
	s.consentMgr = oidckit.NewManager(cfgs)
	return s
}

// WithBaseURL sets the absolute origin used for redirect URIs and popup
// postMessage targets.
func (s *Service) WithBaseURL(u string) *Service { s.baseURL = strings.TrimRight(u, "/"); return s }

func (s *Service) WithRateLimiter(rl RateLimiter) *Service { s.rl = rl; return s }
func (s *Service) DisableRateLimiter() *Service            { s.rl = nil; return s }
func (s *Service) WithClientIPFunc(fn ClientIPFunc) *Service {
	if fn == nil {
		s.clientIP = DefaultClientIP()
		return s
	}
	s.clientIP = fn
	return s
}

func (s *Service) Core() *core.Service { return s.svc }

func (s *Service) allow(r *http.Request, bucket string) bool {
	if s == nil || s.rl == nil {
		return true
	}
	ip := s.clientIP(r)
	if strings.TrimSpace(ip) == "" {
		return true
	}
	ok, err := s.rl.AllowNamed(bucket, "auth:"+bucket+":ip:"+ip)
	if err != nil {
		return true
	}
	return ok
}

// responder collects the flow's toast and navigation output so the handler
// can render it as a JSON response.
type responder struct {
	success  bool
	messages []string
	redirect string
}

func (r *responder) Success(msg string)   { r.success = true; r.messages = append(r.messages, msg) }
func (r *responder) Error(msg string)     { r.messages = append(r.messages, msg) }
func (r *responder) Navigate(path string) { r.redirect = path }
func (r *responder) message() string      { return strings.Join(r.messages, " ") }

// sessionActions wraps core.Service as the flow's Actions, capturing the
// session cookie minted by a successful sign-in.
type sessionActions struct {
	svc    *core.Service
	cookie string
}

func (a *sessionActions) SignUp(ctx context.Context, in core.SignUpInput) (core.ActionResult, error) {
	return a.svc.SignUp(ctx, in)
}

func (a *sessionActions) SignIn(ctx context.Context, in core.SignInInput) (core.ActionResult, error) {
	res, cookie, err := a.svc.SignInWithSession(ctx, in)
	if cookie != "" {
		a.cookie = cookie
	}
	return res, err
}

// consentProvider overrides the federated consent capability with a
// per-request function, leaving the shared client untouched.
type consentProvider struct {
	idp.Provider
	consent idp.ConsentFunc
}

func (p *consentProvider) TriggerFederatedConsent(ctx context.Context) (*idp.UserHandle, error) {
	return p.consent(ctx)
}

func (s *Service) setSessionCookie(w http.ResponseWriter, cookie string) {
	if cookie == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    cookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   strings.HasPrefix(s.baseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.svc.SessionTTL().Seconds()),
	})
}
