package authhttp

import (
	"errors"
	"net/http"

	"github.com/open-rails/signon/core"
)

func (s *Service) handleSignInPOST(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLSignIn) {
		tooMany(w)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid_request")
		return
	}

	resp := &responder{}
	actions := &sessionActions{svc: s.svc}
	flow := core.NewFlow(core.FormSignIn, s.provider, actions, resp, resp)

	err := flow.Submit(r.Context(), core.Credential{
		Email:    req.Email,
		Password: req.Password,
	})
	var fe core.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation_failed", Fields: fe})
		return
	}

	s.setSessionCookie(w, actions.cookie)
	status := http.StatusOK
	if !resp.success {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, flowResponse{
		Success:  resp.success,
		Message:  resp.message(),
		Redirect: resp.redirect,
	})
}
