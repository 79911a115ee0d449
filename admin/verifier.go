package admin

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/open-rails/signon/core"
)

const defaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrMissingUID   = errors.New("missing_uid")
)

// Verifier validates provider-minted bearer tokens against the provider's
// published signing keys. It satisfies core.TokenVerifier.
type Verifier struct {
	cfg     Config
	issuer  string
	jwksURL string
	keys    *jwk.Cache
}

// NewVerifier builds a Verifier for the configured project. The JWKS cache
// refreshes in the background for the lifetime of ctx.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	return newVerifier(ctx, cfg, defaultJWKSURL,
		"https://securetoken.google.com/"+cfg.ProjectID)
}

// NewVerifierForEndpoint is NewVerifier with explicit JWKS and issuer values,
// for emulators and tests.
func NewVerifierForEndpoint(ctx context.Context, cfg Config, jwksURL, issuer string) (*Verifier, error) {
	return newVerifier(ctx, cfg, jwksURL, issuer)
}

func newVerifier(ctx context.Context, cfg Config, jwksURL, issuer string) (*Verifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("admin: ProjectID is required")
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL); err != nil {
		return nil, fmt.Errorf("admin: jwks register: %w", err)
	}
	return &Verifier{cfg: cfg, issuer: issuer, jwksURL: jwksURL, keys: cache}, nil
}

func (v *Verifier) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("admin: token has no kid header")
		}
		set, err := v.keys.Get(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("admin: jwks fetch: %w", err)
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("admin: unknown kid %q", kid)
		}
		var pub rsa.PublicKey
		if err := key.Raw(&pub); err != nil {
			return nil, fmt.Errorf("admin: jwk materialize: %w", err)
		}
		return &pub, nil
	}
}

// VerifyIDToken checks signature, issuer, audience, and expiry, and returns
// the verified identity claims.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*core.IdentityClaims, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(idToken, claims, v.keyfunc(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.cfg.ProjectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil || tok == nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	uid, _ := claims["sub"].(string)
	if strings.TrimSpace(uid) == "" {
		return nil, ErrMissingUID
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	verified, _ := claims["email_verified"].(bool)
	return &core.IdentityClaims{
		UID:           uid,
		Email:         email,
		Name:          name,
		EmailVerified: verified,
	}, nil
}
