package backend

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.CircuitBreaker.Enabled = false
	return New(cfg, nil), srv
}

func pdfUpload() Upload {
	return Upload{Name: "cv.pdf", ContentType: MIMEPDF, Data: []byte("%PDF-1.4 resume")}
}

func TestRolesSorted(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/roles", r.URL.Path)
		_, _ = io.WriteString(w, `{"roles":[{"id":2,"title":"backend"},{"id":"7","title":"Data"},{"id":1,"title":"Android"}]}`)
	}))

	roles, err := c.Roles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Role{{ID: "1", Title: "Android"}, {ID: "2", Title: "backend"}, {ID: "7", Title: "Data"}}, roles)
}

func TestRolesEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	roles, err := c.Roles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, roles)
	assert.NotNil(t, roles)
}

func TestAnalyzeEndpoint(t *testing.T) {
	assert.Equal(t, "/analyze/with-jd", AnalyzeEndpoint("3", "Go developer"))
	assert.Equal(t, "/analyze/with-role", AnalyzeEndpoint("3", "   "))
	assert.Equal(t, "/analyze/general", AnalyzeEndpoint("", ""))
}

func TestAnalyzeSendsForm(t *testing.T) {
	tests := []struct {
		name     string
		roleID   string
		jd       string
		path     string
		field    string
		expected string
	}{
		{"job description", "4", "Build APIs", "/analyze/with-jd", "job_description", "Build APIs"},
		{"role", "4", "", "/analyze/with-role", "role_id", "4"},
		{"general", "", "", "/analyze/general", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				require.NoError(t, r.ParseMultipartForm(1<<20))

				files := r.MultipartForm.File["resume"]
				require.Len(t, files, 1)
				assert.Equal(t, "cv.pdf", files[0].Filename)
				assert.Equal(t, MIMEPDF, files[0].Header.Get("Content-Type"))
				if tt.field != "" {
					assert.Equal(t, tt.expected, r.FormValue(tt.field))
				} else {
					assert.Empty(t, r.MultipartForm.Value)
				}
				_, _ = io.WriteString(w, `{"analysis_id": 42, "analysis": [{"score": 81}]}`)
			}))

			a, err := c.Analyze(context.Background(), pdfUpload(), tt.roleID, tt.jd)
			require.NoError(t, err)
			assert.Equal(t, ID("42"), a.ID)
			require.Len(t, a.Items, 1)
			assert.Equal(t, 81.0, a.Items[0]["score"])
			assert.NotEmpty(t, a.Raw)
		})
	}
}

func TestAnalyzeRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"top-level error", http.StatusOK, `{"error": "Job description is not relevant"}`, "Job description is not relevant"},
		{"item errors", http.StatusOK, `{"analysis_id": "a1", "analysis": [{"error": "bad section"}, {"score": 3}, {"error": "no skills"}]}`, "bad section; no skills"},
		{"client error detail", http.StatusUnprocessableEntity, `{"detail": "Unsupported file"}`, "Unsupported file"},
		{"client error without detail", http.StatusBadRequest, `{}`, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.Analyze(context.Background(), pdfUpload(), "", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAnalysisRejected)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestAnalyzeMalformed(t *testing.T) {
	for _, body := range []string{`[1, 2]`, `{"unrelated": true}`, `{"analysis_id": {"nested": 1}}`, `not json`} {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		_, err := c.Analyze(context.Background(), pdfUpload(), "", "")
		assert.ErrorIs(t, err, ErrDecode, body)
	}
}

func TestAnalyzeWithoutID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"analysis": []}`)
	}))
	_, err := c.Analyze(context.Background(), pdfUpload(), "", "")
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "Unexpected response from server")
}

func TestAnalyzeValidatesBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	_, err := c.Analyze(context.Background(), Upload{Name: "cv.png", ContentType: "image/png", Data: []byte("x")}, "", "")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	big := Upload{Name: "cv.pdf", ContentType: MIMEPDF, Data: make([]byte, config.DefaultMaxUploadSize+1)}
	_, err = c.Analyze(context.Background(), big, "", "")
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileTooLarge, appErr.Code)

	_, err = c.Analyze(context.Background(), Upload{Name: "cv.pdf"}, "", "")
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))

	assert.Zero(t, hits.Load())
}

func TestDirectImprove(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/direct-improve/ok":
			_, _ = io.WriteString(w, `{"improved_resume": {"Summary": "Hi"}, "suggestions": []}`)
		case "/direct-improve/missing":
			http.NotFound(w, r)
		case "/direct-improve/broken":
			_, _ = io.WriteString(w, `{"improved_resume":`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	ctx := context.Background()

	body, err := c.DirectImprove(ctx, "ok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"improved_resume": {"Summary": "Hi"}, "suggestions": []}`, string(body))

	_, err = c.DirectImprove(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, errors.HTTPStatus(err))

	_, err = c.DirectImprove(ctx, "fail")
	assert.ErrorIs(t, err, ErrServer)

	_, err = c.DirectImprove(ctx, "broken")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = c.DirectImprove(ctx, "  ")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDirectImproveEscapesID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/direct-improve/a%2Fb", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{}`)
	}))
	_, err := c.DirectImprove(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestLoginAndSignup(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		switch {
		case r.URL.Path == "/auth/login" && strings.Contains(string(body), `"password":"right"`):
			_, _ = io.WriteString(w, `{"token": "tok-1", "user": {"email": "ada@example.com"}}`)
		case r.URL.Path == "/auth/login" && strings.Contains(string(body), `"password":"silent"`):
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{}`)
		case r.URL.Path == "/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message": "Invalid password"}`)
		case r.URL.Path == "/auth/signup":
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `not json`)
		}
	}))
	ctx := context.Background()

	res, err := c.Login(ctx, Credentials{Email: "ada@example.com", Password: "right"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.JSONEq(t, `{"email": "ada@example.com"}`, string(res.User))

	_, err = c.Login(ctx, Credentials{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrLoginFailed)
	appErr, _ := errors.As(err)
	assert.Equal(t, "Invalid password", appErr.Message)

	_, err = c.Login(ctx, Credentials{Password: "silent"})
	appErr, _ = errors.As(err)
	assert.Equal(t, "Login failed", appErr.Message)

	_, err = c.Signup(ctx, Registration{Name: "Ada", Email: "ada@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrSignupFailed)
	appErr, _ = errors.As(err)
	assert.Equal(t, "Signup failed", appErr.Message)
}

func TestTransportError(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())
	srv.Close()

	_, err := c.Roles(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_, _ = io.WriteString(w, `{"roles": []}`)
	}))
	defer srv.Close()

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Backend.BaseURL = srv.URL + "/"
	cfg.Backend.APIKey = "secret"
	_, err = New(cfg, nil, WithHTTPClient(srv.Client())).Roles(context.Background())
	require.NoError(t, err)
}

func TestBreakerTrips(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	c := New(cfg, nil)
	ctx := context.Background()

	for range 2 {
		_, err := c.Roles(ctx)
		assert.ErrorIs(t, err, ErrServer)
	}
	assert.False(t, c.Healthy())

	_, err = c.Roles(ctx)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, int32(2), hits.Load(), "an open breaker short-circuits the call")
	assert.Equal(t, "open", c.BreakerStats()["state"])
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.CircuitBreaker = config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, MinRequests: 1, FailureThreshold: 0.1}
	c := New(cfg, nil)

	for range 3 {
		_, err := c.DirectImprove(context.Background(), "x")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.True(t, c.Healthy())
}

func TestNilBreaker(t *testing.T) {
	var b *Breaker
	assert.True(t, b.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, b.Stats())

	want := stderrors.New("direct")
	_, err := b.Execute(func() (*response, error) { return nil, want })
	assert.Same(t, want, err)
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		size        int64
		code        string
	}{
		{"pdf", "cv.pdf", MIMEPDF, 1024, ""},
		{"doc", "cv.doc", MIMEDoc, 1024, ""},
		{"docx", "cv.docx", MIMEDocx, 1024, ""},
		{"extension fallback", "CV.DOCX", "", 1024, ""},
		{"octet stream with pdf extension", "cv.pdf", "application/octet-stream", 1024, ""},
		{"parameters ignored", "cv.pdf", "application/pdf; charset=binary", 1024, ""},
		{"exactly the limit", "cv.pdf", MIMEPDF, config.DefaultMaxUploadSize, ""},
		{"too large", "cv.pdf", MIMEPDF, config.DefaultMaxUploadSize + 1, errors.ErrCodeFileTooLarge},
		{"image", "cv.png", "image/png", 10, errors.ErrCodeUnsupportedFile},
		{"unknown extension", "cv.txt", "", 10, errors.ErrCodeUnsupportedFile},
		{"empty", "cv.pdf", MIMEPDF, 0, errors.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.file, tt.contentType, tt.size)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestUploadPolicyLimit(t *testing.T) {
	p := UploadPolicy{MaxSize: 10}
	assert.NoError(t, p.Validate("cv.pdf", MIMEPDF, 10))
	err := p.Validate("cv.pdf", MIMEPDF, 11)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10 bytes")
}

func TestGoogleAuthURL(t *testing.T) {
	raw := GoogleAuthURL("client-1", "https://app.example.com/auth/google/callback", nil, "/job_recommendations")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "/o/oauth2/v2/auth", u.Path)
	q := u.Query()
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/auth/google/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "/job_recommendations", q.Get("state"))

	u, err = url.Parse(GoogleAuthURL("c", "r", []string{"email"}, ""))
	require.NoError(t, err)
	assert.Equal(t, "email", u.Query().Get("scope"))
	assert.False(t, u.Query().Has("state"))
}
