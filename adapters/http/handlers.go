package authhttp

import "net/http"

// Handler returns the JSON API routes. It is intended to be mounted under
// the host's mux at any prefix.
func (s *Service) Handler() http.Handler {
	if s == nil || s.svc == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serverErr(w, "signon_not_initialized") })
	}

	mux := http.NewServeMux()

	mux.Handle("POST /auth/sign-up", http.HandlerFunc(s.handleSignUpPOST))
	mux.Handle("POST /auth/sign-in", http.HandlerFunc(s.handleSignInPOST))
	mux.Handle("DELETE /auth/session", http.HandlerFunc(s.handleSessionDELETE))

	mux.Handle("GET /auth/federated/{provider}", http.HandlerFunc(s.handleFederatedStartGET))
	mux.Handle("GET /auth/federated/{provider}/callback", http.HandlerFunc(s.handleFederatedCallbackGET))

	return mux
}
