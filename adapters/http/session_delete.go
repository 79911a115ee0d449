package authhttp

import "net/http"

func (s *Service) handleSessionDELETE(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		unauthorized(w, "no_session")
		return
	}
	if err := s.svc.RevokeSession(r.Context(), c.Value); err != nil {
		serverErr(w, "session_revoke_failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
