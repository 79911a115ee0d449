package authhttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/open-rails/signon/core"
	"github.com/open-rails/signon/idp"
)

func (s *Service) handleFederatedCallbackGET(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLFederatedCallback) {
		tooMany(w)
		return
	}
	if s.consentMgr == nil {
		badRequest(w, "federated_not_configured")
		return
	}

	provider := r.PathValue("provider")
	state := r.URL.Query().Get("state")
	if state == "" {
		badRequest(w, "invalid_request")
		return
	}

	sd, ok, err := s.states.Get(r.Context(), state)
	_ = s.states.Del(r.Context(), state)
	if err != nil || !ok || sd.Provider != provider {
		badRequest(w, "invalid_state")
		return
	}

	qErr := r.URL.Query().Get("error")
	code := r.URL.Query().Get("code")

	consent := func(ctx context.Context) (*idp.UserHandle, error) {
		switch {
		case qErr == "access_denied":
			// The user dismissed the provider-hosted consent screen.
			return nil, &idp.Error{Code: idp.CodeConsentDismissed, Detail: qErr}
		case qErr != "":
			return nil, &idp.Error{Code: idp.CodeProviderFailure, Detail: qErr}
		case code == "":
			return nil, &idp.Error{Code: idp.CodeProviderFailure, Detail: "missing authorization code"}
		}
		rpClient, err := s.consentMgr.GetRPWithRedirect(ctx, provider, sd.RedirectURI)
		if err != nil {
			return nil, &idp.Error{Code: idp.CodeProviderFailure, Detail: err.Error()}
		}
		claims, err := s.exchange(ctx, rpClient, provider, code, sd.Verifier, sd.Nonce)
		if err != nil {
			return nil, &idp.Error{Code: idp.CodeProviderFailure, Detail: err.Error()}
		}
		if s.client == nil {
			return nil, &idp.Error{Code: idp.CodeProviderFailure, Detail: "idp client not configured"}
		}
		return s.client.SignInWithIdP(ctx, claims.RawIDToken, upstreamProviderID(provider), sd.RedirectURI)
	}

	resp := &responder{}
	actions := &sessionActions{svc: s.svc}
	flow := core.NewFlow(core.FormSignIn, &consentProvider{Provider: s.provider, consent: consent}, actions, resp, resp)
	_ = flow.SubmitFederated(r.Context())

	s.setSessionCookie(w, actions.cookie)

	if sd.UI == "popup" {
		s.writePopup(w, popupPayload{
			Success:  resp.success,
			Message:  resp.message(),
			Redirect: resp.redirect,
			Provider: provider,
			Nonce:    sd.PopupNonce,
		})
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		status := http.StatusOK
		if !resp.success {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, flowResponse{
			Success:  resp.success,
			Message:  resp.message(),
			Redirect: resp.redirect,
		})
		return
	}

	target := resp.redirect
	if target == "" {
		target = core.PathSignIn
	}
	http.Redirect(w, r, s.baseURL+target, http.StatusFound)
}

// upstreamProviderID maps a provider slug to the identifier the idp exchange
// endpoint expects.
func upstreamProviderID(provider string) string {
	if provider == "google" {
		return "google.com"
	}
	return provider
}
