package authhttp

import (
	"errors"
	"net/http"

	"github.com/open-rails/signon/core"
)

type flowResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

type validationResponse struct {
	Error  string           `json:"error"`
	Fields core.FieldErrors `json:"fields"`
}

func (s *Service) handleSignUpPOST(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLSignUp) {
		tooMany(w)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid_request")
		return
	}

	resp := &responder{}
	actions := &sessionActions{svc: s.svc}
	flow := core.NewFlow(core.FormSignUp, s.provider, actions, resp, resp)

	err := flow.Submit(r.Context(), core.Credential{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	var fe core.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation_failed", Fields: fe})
		return
	}

	status := http.StatusOK
	if !resp.success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, flowResponse{
		Success:  resp.success,
		Message:  resp.message(),
		Redirect: resp.redirect,
	})
}
