package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ConsentFunc runs the provider-hosted federated consent flow and returns the
// resulting handle. Server-side integrations wire this to the OIDC callback
// exchange; it is nil on clients that only do password credentials.
type ConsentFunc func(ctx context.Context) (*UserHandle, error)

// Client talks to the provider's REST account endpoints using the API key.
// Construct one per process and pass it by reference; there is no ambient
// singleton.
type Client struct {
	cfg     Config
	httpc   *http.Client
	consent ConsentFunc
}

// New builds a Client from cfg. It fails fast on malformed configuration so
// a bad deployment dies at process start rather than on first submit.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("idp: ProjectID and APIKey are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://identitytoolkit.googleapis.com"
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = "https://securetoken.googleapis.com"
	}
	return &Client{cfg: cfg, httpc: http.DefaultClient}, nil
}

func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.httpc = h
	}
	return c
}

// WithConsent wires the federated consent flow. Without it,
// TriggerFederatedConsent reports a generic provider failure.
func (c *Client) WithConsent(fn ConsentFunc) *Client { c.consent = fn; return c }

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	IsNewUser    bool   `json:"isNewUser"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCredential registers a new email+password credential with the provider.
func (c *Client) CreateCredential(ctx context.Context, email, password string) (*UserHandle, error) {
	var resp accountResponse
	err := c.post(ctx, c.cfg.Endpoint+"/v1/accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &UserHandle{
		UID:          resp.LocalID,
		Email:        resp.Email,
		NewlyCreated: true,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
	}, nil
}

// VerifyCredential checks an existing email+password credential.
func (c *Client) VerifyCredential(ctx context.Context, email, password string) (*UserHandle, error) {
	var resp accountResponse
	err := c.post(ctx, c.cfg.Endpoint+"/v1/accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &UserHandle{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
	}, nil
}

// SignInWithIdP trades a verified upstream id_token (e.g. from the Google
// consent flow) for a provider credential. The provider reports whether the
// identity was newly created.
func (c *Client) SignInWithIdP(ctx context.Context, rawIDToken, providerID, requestURI string) (*UserHandle, error) {
	var resp accountResponse
	err := c.post(ctx, c.cfg.Endpoint+"/v1/accounts:signInWithIdp", map[string]any{
		"postBody":          "id_token=" + rawIDToken + "&providerId=" + providerID,
		"requestUri":        requestURI,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &UserHandle{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		NewlyCreated: resp.IsNewUser,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
	}, nil
}

func (c *Client) TriggerFederatedConsent(ctx context.Context) (*UserHandle, error) {
	if c.consent == nil {
		return nil, &Error{Code: CodeProviderFailure, Detail: "federated consent not configured"}
	}
	return c.consent(ctx)
}

// MintToken returns a short-lived bearer token for the handle. The token from
// the credential call is used when still present; otherwise the refresh token
// is exchanged.
func (c *Client) MintToken(ctx context.Context, h *UserHandle) (string, error) {
	if h == nil {
		return "", &Error{Code: CodeProviderFailure, Detail: "nil user handle"}
	}
	if h.idToken != "" {
		return h.idToken, nil
	}
	if h.refreshToken == "" {
		return "", nil
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", h.refreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.TokenEndpoint+"/v1/token?key="+url.QueryEscape(c.cfg.APIKey),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return "", &Error{Code: CodeProviderFailure, Detail: err.Error()}
	}
	defer func() { _ = httpResp.Body.Close() }()
	if httpResp.StatusCode != http.StatusOK {
		return "", decodeProviderError(httpResp)
	}
	var tr struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&tr); err != nil {
		return "", &Error{Code: CodeProviderFailure, Detail: err.Error()}
	}
	return tr.IDToken, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body map[string]any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint+"?key="+url.QueryEscape(c.cfg.APIKey), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &Error{Code: CodeProviderFailure, Detail: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return decodeProviderError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeProviderError(resp *http.Response) error {
	var pe providerError
	if err := json.NewDecoder(resp.Body).Decode(&pe); err != nil || pe.Error.Message == "" {
		return &Error{Code: CodeProviderFailure, Detail: resp.Status}
	}
	return &Error{Code: classify(pe.Error.Message), Detail: pe.Error.Message}
}

// classify maps provider wire messages onto the small set of recognized codes.
func classify(message string) string {
	switch {
	case strings.HasPrefix(message, "EMAIL_EXISTS"):
		return CodeEmailExists
	case strings.HasPrefix(message, "WEAK_PASSWORD"):
		return CodeWeakPassword
	case strings.HasPrefix(message, "INVALID_PASSWORD"),
		strings.HasPrefix(message, "INVALID_LOGIN_CREDENTIALS"):
		return CodeInvalidCredentials
	case strings.HasPrefix(message, "EMAIL_NOT_FOUND"):
		return CodeUserNotFound
	default:
		return CodeProviderFailure
	}
}
