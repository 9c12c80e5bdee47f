package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/username/sixex/backend/src/logger"
	"github.com/username/sixex/backend/src/utils"
)

const csrfCookieName = "_csrf"

// CSRFTokenHandler issues a signed double-submit token: the client gets it
// both as a cookie and in the response, and must echo it back in the
// X-CSRF-Token header on state-changing requests.
func CSRFTokenHandler(authKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := signedCSRFToken(authKey)
		if err != nil {
			logger.L.Error("Failed to generate CSRF token", "error", err)
			utils.SendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     csrfCookieName,
			Value:    token,
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
			HttpOnly: true,
			Secure:   false, // set to true behind HTTPS
			MaxAge:   3600,
		})
		w.Header().Set("X-CSRF-Token", token)
		utils.WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	}
}

// CSRFMiddleware validates the double-submit pair: header and cookie must
// carry the same token and its signature must verify against authKey.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken != "" && err == nil &&
				headerToken == cookie.Value && validCSRFToken(authKey, headerToken) {
				next.ServeHTTP(w, r)
				return
			}

			logger.L.Warn("CSRF token validation failed",
				"method", r.Method,
				"path", r.URL.Path,
				"hasHeaderToken", headerToken != "",
				"hasCookie", err == nil)
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}

func signedCSRFToken(authKey []byte) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := base64.URLEncoding.EncodeToString(b)
	return value + "." + signCSRFValue(authKey, value), nil
}

func validCSRFToken(authKey []byte, token string) bool {
	value, signature, found := strings.Cut(token, ".")
	if !found {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(signCSRFValue(authKey, value)))
}

func signCSRFValue(authKey []byte, value string) string {
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
