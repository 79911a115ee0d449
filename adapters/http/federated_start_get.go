package authhttp

import (
	"net/http"

	oidckit "github.com/open-rails/signon/oidc"
)

func (s *Service) handleFederatedStartGET(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLFederatedStart) {
		tooMany(w)
		return
	}
	if s.consentMgr == nil {
		badRequest(w, "federated_not_configured")
		return
	}

	provider := r.PathValue("provider")
	ui := r.URL.Query().Get("ui")
	if ui != "" && ui != "popup" {
		badRequest(w, "invalid_ui")
		return
	}

	state := randB64(32)
	nonce := randB64(16)
	verifier, challenge, err := oidckit.GeneratePKCE()
	if err != nil {
		serverErr(w, "pkce_generation_failed")
		return
	}

	redirectURI := s.redirectURI(r, provider)
	authURL, err := s.consentMgr.Begin(r.Context(), provider, state, nonce, challenge, redirectURI)
	if err != nil {
		badRequest(w, "unknown_provider")
		return
	}

	if err := s.states.Put(r.Context(), state, oidckit.StateData{
		Provider:    provider,
		Verifier:    verifier,
		Nonce:       nonce,
		RedirectURI: redirectURI,
		UI:          ui,
		PopupNonce:  r.URL.Query().Get("popup_nonce"),
	}); err != nil {
		serverErr(w, "state_store_failed")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Service) redirectURI(r *http.Request, provider string) string {
	base := s.baseURL
	if base == "" {
		scheme := "https"
		if r.TLS == nil {
			scheme = "http"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/auth/federated/" + provider + "/callback"
}
