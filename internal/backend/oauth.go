package backend

import (
	"net/url"
	"strings"
)

// GoogleAuthEndpoint is the authorization endpoint of Google's OAuth 2.0
// authorization-code flow.
const GoogleAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

// DefaultScopes are requested when none are configured.
var DefaultScopes = []string{"openid", "email", "profile"}

// GoogleAuthURL builds the URL the browser is sent to for Google sign-in.
// state is returned unchanged on the callback; it carries the path to
// resume after login.
func GoogleAuthURL(clientID, redirectURI string, scopes []string, state string) string {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	if state != "" {
		q.Set("state", state)
	}
	return GoogleAuthEndpoint + "?" + q.Encode()
}
