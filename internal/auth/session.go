// Package auth implements the admin login session and flash messages of the
// portal on top of a signed session cookie.
package auth

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "config-portal"

// Flash is a user-visible feedback message with a display category
// ("success", "info", "warning" or "error").
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Sessions manages the admin login session and flash messages.
type Sessions struct {
	store             *sessions.CookieStore
	adminUsername     string
	adminPasswordHash string
}

// NewSessions creates a session manager. If adminPasswordHash is empty, login
// is disabled and all requests pass through unauthenticated (portal behind a
// trusted proxy).
func NewSessions(secret, adminUsername, adminPasswordHash string) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return &Sessions{
		store:             store,
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
	}
}

// LoginEnabled reports whether an admin password hash is configured.
func (s *Sessions) LoginEnabled() bool {
	return s.adminPasswordHash != ""
}

// Verify checks the admin credentials.
func (s *Sessions) Verify(username, password string) bool {
	if !s.LoginEnabled() || username != s.adminUsername {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password))
	return err == nil
}

// LogIn marks the session as authenticated.
func (s *Sessions) LogIn(w http.ResponseWriter, r *http.Request, username string) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values["username"] = username
	return session.Save(r, w)
}

// LogOut clears the session.
func (s *Sessions) LogOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, "username")
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// CurrentUser returns the logged-in username, or "" if not authenticated.
func (s *Sessions) CurrentUser(r *http.Request) string {
	session, _ := s.store.Get(r, sessionName)
	username, _ := session.Values["username"].(string)
	return username
}

// AddFlash queues a flash message for the next rendered page.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := s.store.Get(r, sessionName)
	session.AddFlash(Flash{Category: category, Message: message})
	// errors saving the flash only lose the message, never the request
	_ = session.Save(r, w)
}

// Flashes drains the queued flash messages.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session, _ := s.store.Get(r, sessionName)
	var flashes []Flash
	for _, raw := range session.Flashes() {
		if flash, ok := raw.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	_ = session.Save(r, w)
	return flashes
}

// RequireLogin redirects unauthenticated requests to the login page. When
// login is disabled it passes every request through.
func (s *Sessions) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.LoginEnabled() && s.CurrentUser(r) == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
