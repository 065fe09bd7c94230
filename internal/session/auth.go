package session

import (
	"context"
	"net/url"
	"strings"
)

// LoginPath is where gated pages send anonymous visitors.
const LoginPath = "/login"

// Auth reads and writes the login state of one visitor.
type Auth struct {
	store Store
}

func NewAuth(store Store) *Auth {
	return &Auth{store: store}
}

// Login stores the token and notifies subscribers.
func (a *Auth) Login(ctx context.Context, token string) error {
	return a.store.Set(ctx, KeyAuthToken, token)
}

// Logout removes the token. Logging out twice is not an error.
func (a *Auth) Logout(ctx context.Context) error {
	return a.store.Delete(ctx, KeyAuthToken)
}

// Token returns the stored token, or "" when logged out.
func (a *Auth) Token(ctx context.Context) (string, error) {
	tok, _, err := a.store.Get(ctx, KeyAuthToken)
	return tok, err
}

// IsAuthenticated treats store failures as logged out.
func (a *Auth) IsAuthenticated(ctx context.Context) bool {
	tok, err := a.Token(ctx)
	return err == nil && tok != ""
}

// RememberAnalysis records the most recent analysis id.
func (a *Auth) RememberAnalysis(ctx context.Context, id string) error {
	return a.store.Set(ctx, KeyAnalysisID, id)
}

// LastAnalysis returns the most recent analysis id, or "".
func (a *Auth) LastAnalysis(ctx context.Context) (string, error) {
	id, _, err := a.store.Get(ctx, KeyAnalysisID)
	return id, err
}

// OnChange calls fn with the new login state whenever the token changes.
func (a *Auth) OnChange(fn func(authenticated bool)) func() {
	return a.store.Subscribe(func(c Change) {
		if c.Key == KeyAuthToken {
			fn(!c.Deleted && c.Value != "")
		}
	})
}

// Decision is the outcome of guarding a path.
type Decision struct {
	Allow    bool
	Redirect string
	From     string
}

// Guard lets authenticated visitors through gated paths and sends everyone
// else to the login page, remembering where they were going.
func (a *Auth) Guard(ctx context.Context, path string, gated bool) Decision {
	if !gated || a.IsAuthenticated(ctx) {
		return Decision{Allow: true}
	}
	return Decision{
		Redirect: LoginPath + "?from=" + url.QueryEscape(path),
		From:     path,
	}
}

// RedirectAfterLogin picks the page to show after a successful login. Only
// local paths are honored.
func RedirectAfterLogin(from string) string {
	from = strings.TrimSpace(from)
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	if u, err := url.Parse(from); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	if from == LoginPath || strings.HasPrefix(from, LoginPath+"?") {
		return "/"
	}
	return from
}
