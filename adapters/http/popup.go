package authhttp

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// popupPayload is postMessaged to the opener window when the federated flow
// ran in popup mode.
type popupPayload struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
	Provider string `json:"provider"`
	Nonce    string `json:"nonce,omitempty"`
}

const popupMessageType = "SIGNON_CONSENT_RESULT"

func (s *Service) writePopup(w http.ResponseWriter, payload popupPayload) {
	payload.Type = popupMessageType
	targetOrigin, ok := originFromBaseURL(s.baseURL)
	if !ok {
		serverErr(w, "invalid_base_url")
		return
	}
	b, _ := json.Marshal(payload)
	html := buildPopupHTML(b, targetOrigin)
	w.Header().Set("Content-Security-Policy", "default-src 'none'; script-src 'unsafe-inline'; base-uri 'none'; frame-ancestors 'none'")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func buildPopupHTML(payloadJSON []byte, targetOrigin string) []byte {
	originJSON, _ := json.Marshal(targetOrigin)
	html := "<!doctype html><html><body><script>\n" +
		"try {\n" +
		"  var data = " + string(payloadJSON) + ";\n" +
		"  var targetOrigin = " + string(originJSON) + ";\n" +
		"  if (window.opener) { window.opener.postMessage(data, targetOrigin); }\n" +
		"} finally { window.close(); }\n" +
		"</script></body></html>"
	return []byte(html)
}

func originFromBaseURL(base string) (string, bool) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}
