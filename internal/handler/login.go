package handler

import (
	"net/http"

	"distancemeter/internal/logger"
	"distancemeter/internal/middleware"
)

// LoginPageHandler renders the login form.
func LoginPageHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, logger, http.StatusOK, "login", loginPage{})
	}
}

// LoginHandler handles POST /auth/login by validating password and issuing an auth cookie.
func LoginHandler(auth *middleware.Auth, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if !auth.CheckPassword(r.FormValue("password")) {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			renderPage(w, logger, http.StatusUnauthorized, "login", loginPage{Error: "Invalid password"})
			return
		}

		if auth.Enabled() {
			http.SetCookie(w, auth.SessionCookie())
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler clears the authentication cookie and redirects to the login page.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
