package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "authenticated"

// Auth holds the bcrypt hash of the configured password and the session token.
// A zero password disables authentication.
type Auth struct {
	hash  []byte
	token string
}

// NewAuth hashes password. An empty password yields a disabled Auth.
func NewAuth(password string) (*Auth, error) {
	if password == "" {
		return &Auth{}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	return &Auth{hash: hash, token: hex.EncodeToString(raw)}, nil
}

// Enabled reports whether a password is required.
func (a *Auth) Enabled() bool {
	return len(a.hash) > 0
}

// CheckPassword compares password with the stored hash.
func (a *Auth) CheckPassword(password string) bool {
	if !a.Enabled() {
		return true
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
}

// SessionCookie returns the cookie issued after login.
func (a *Auth) SessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    a.token,
		Path:     "/",
		MaxAge:   2592000, // 30 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Authenticated reports whether r carries a valid session cookie.
func (a *Auth) Authenticated(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(a.token)) == 1
}

// Middleware checks that the user is logged in before serving next.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login page and its form stay reachable without a session.
		if r.URL.Path == "/login" || strings.HasPrefix(r.URL.Path, "/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		if !a.Authenticated(r) {
			// API and AJAX requests get 401, pages are redirected to the login form.
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
