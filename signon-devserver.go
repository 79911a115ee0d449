package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	authhttp "github.com/open-rails/signon/adapters/http"
	"github.com/open-rails/signon/admin"
	"github.com/open-rails/signon/core"
	"github.com/open-rails/signon/idp"
	oidckit "github.com/open-rails/signon/oidc"
	memorystore "github.com/open-rails/signon/storage/memory"
	pgstore "github.com/open-rails/signon/storage/postgres"
)

type config struct {
	ListenAddr         string
	BaseURL            string
	DBURL              string
	RedisAddr          string
	IDPProjectID       string
	IDPAPIKey          string
	GoogleClientID     string
	GoogleClientSecret string
}

func main() {
	cfg := loadConfig()

	cmd := "serve"
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		cmd = strings.TrimSpace(os.Args[1])
	}

	switch cmd {
	case "serve":
		if err := runServe(cfg); err != nil {
			fatal(err)
		}
	case "migrate":
		if err := runMigrate(cfg); err != nil {
			fatal(err)
		}
	default:
		fatal(fmt.Errorf("unknown command %q (supported: serve, migrate)", cmd))
	}
}

func loadConfig() *config {
	return &config{
		ListenAddr:         envOr("SIGNON_LISTEN_ADDR", ":8080"),
		BaseURL:            envOr("SIGNON_BASE_URL", "http://localhost:8080"),
		DBURL:              os.Getenv("SIGNON_DB_URL"),
		RedisAddr:          os.Getenv("SIGNON_REDIS_ADDR"),
		IDPProjectID:       os.Getenv("SIGNON_IDP_PROJECT_ID"),
		IDPAPIKey:          os.Getenv("SIGNON_IDP_API_KEY"),
		GoogleClientID:     os.Getenv("SIGNON_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("SIGNON_GOOGLE_CLIENT_SECRET"),
	}
}

func runServe(cfg *config) error {
	ctx := context.Background()

	var provider idp.Provider
	var restClient *idp.Client
	var verifier core.TokenVerifier
	if cfg.IDPAPIKey != "" {
		client, err := idp.New(idp.Config{ProjectID: cfg.IDPProjectID, APIKey: cfg.IDPAPIKey})
		if err != nil {
			return err
		}
		provider, restClient = client, client

		adminCfg, err := admin.LoadConfig()
		if err != nil {
			return err
		}
		verifier, err = admin.NewVerifier(ctx, adminCfg)
		if err != nil {
			return err
		}
	} else {
		stdlog.Printf("[signon/dev] no SIGNON_IDP_API_KEY set; using in-memory fake provider")
		provider = idp.NewFake()
		verifier = devVerifier{}
	}

	svc := core.NewService(verifier).
		WithEphemeralStore(memorystore.NewKV(), core.EphemeralMemory).
		WithSessionTTL(24 * time.Hour)

	if cfg.DBURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		svc = svc.WithUserStore(pgstore.New(pool))
	} else {
		svc = svc.WithUserStore(memorystore.NewUsers())
	}

	httpSvc := authhttp.NewService(svc, provider).
		WithIDPClient(restClient).
		WithBaseURL(cfg.BaseURL)

	if cfg.RedisAddr != "" {
		httpSvc = httpSvc.WithRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	if cfg.GoogleClientID != "" {
		httpSvc = httpSvc.WithConsentProviders(map[string]oidckit.RPClient{
			"google": {
				Issuer:       "https://accounts.google.com",
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Scopes:       []string{"openid", "profile", "email"},
			},
		})
	}

	stdlog.Printf("[signon/dev] listening on %s", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, httpSvc.Handler())
}

func runMigrate(cfg *config) error {
	if cfg.DBURL == "" {
		return fmt.Errorf("SIGNON_DB_URL is required for migrate")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return pgstore.New(pool).EnsureSchema(ctx)
}

// devVerifier accepts the fake provider's tokens. Never use outside dev.
type devVerifier struct{}

func (devVerifier) VerifyIDToken(ctx context.Context, idToken string) (*core.IdentityClaims, error) {
	_ = ctx
	uid, ok := strings.CutPrefix(idToken, "fake-token-")
	if !ok || uid == "" {
		return nil, admin.ErrInvalidToken
	}
	return &core.IdentityClaims{UID: uid}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	stdlog.Printf("[signon/dev] fatal: %v", err)
	os.Exit(1)
}
