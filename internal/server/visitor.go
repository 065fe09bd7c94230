package server

import (
	"net/http"

	"resumecraft/internal/session"

	"github.com/google/uuid"
)

const defaultCookieName = "resumecraft_session"

func (s *Server) cookieName() string {
	if s.AppConfig != nil && s.AppConfig.Auth.CookieName != "" {
		return s.AppConfig.Auth.CookieName
	}
	return defaultCookieName
}

// requestVisitorID returns the session id carried by r, or "" when the
// request has none or a malformed one.
func (s *Server) requestVisitorID(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName()); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	return ""
}

// visitorID returns the session id carried by r, issuing a new cookie when
// the request has none or a malformed one.
func (s *Server) visitorID(w http.ResponseWriter, r *http.Request) string {
	if id := s.requestVisitorID(r); id != "" {
		return id
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     s.cookieName(),
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if s.AppConfig != nil {
		cookie.Secure = s.AppConfig.Auth.CookieSecure
		if ttl := s.AppConfig.Session.TTL; ttl > 0 {
			cookie.MaxAge = int(ttl.Seconds())
		}
	}
	http.SetCookie(w, cookie)
	// Later lookups during this request must see the same id.
	r.AddCookie(&http.Cookie{Name: cookie.Name, Value: id})
	return id
}

// visitor returns the auth view of the requesting visitor's session.
func (s *Server) visitor(w http.ResponseWriter, r *http.Request) *session.Auth {
	return session.NewAuth(session.Scoped(s.Sessions, s.visitorID(w, r)))
}
