package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jason-s-yu/plagiarist/internal/auth"
	log "github.com/sirupsen/logrus"
)

const authCookieName = "auth_token"

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == cookieName {
			return value
		}
	}
	return ""
}

// identityFromRequest authenticates the auth_token cookie.
func identityFromRequest(r *http.Request) (auth.Identity, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), authCookieName)
	if token == "" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return auth.ParseToken(token)
}

// ensureGuest returns the caller's identity, minting a guest token (and setting the
// cookie) when the request carries no valid one. It must run before the response
// headers are written.
func ensureGuest(w http.ResponseWriter, r *http.Request) (auth.Identity, error) {
	if ident, err := identityFromRequest(r); err == nil {
		return ident, nil
	}
	ident, token, err := auth.NewGuest(r.URL.Query().Get("username"))
	if err != nil {
		return auth.Identity{}, err
	}
	setAuthCookie(w, token)
	return ident, nil
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to encode response: %v", err)
	}
}

// writeError sends {"error": msg, "code": code}.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
