package handlers

import (
	"net/http"

	"github.com/mapadmin/config-portal/internal/auth"
)

// ShowLogin renders the login form.
func ShowLogin(sessions *auth.Sessions, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sessions.LoginEnabled() || sessions.CurrentUser(r) != "" {
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
			return
		}
		view.Render(w, r, "login", map[string]interface{}{
			"Username": "",
		})
	}
}

// Login verifies the admin credentials and starts the session.
func Login(sessions *auth.Sessions, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		username := r.PostForm.Get("username")
		password := r.PostForm.Get("password")

		if !sessions.Verify(username, password) {
			view.Flash(w, r, "error", "Invalid username or password.")
			view.Render(w, r, "login", map[string]interface{}{
				"Username": username,
			})
			return
		}

		if err := sessions.LogIn(w, r, username); err != nil {
			view.Flash(w, r, "error", "Could not start session: %v", err)
		}
		http.Redirect(w, r, "/resources", http.StatusSeeOther)
	}
}

// Logout ends the session.
func Logout(sessions *auth.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = sessions.LogOut(w, r)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
