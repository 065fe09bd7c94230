// Package backend is the HTTP client for the remote resume analysis and
// authentication API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strings"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseSize = 10 << 20

// Errors returned by Client. Compare with errors.Is; the returned values
// carry extra context.
var (
	ErrNotFound         = errors.NewNotFoundError(errors.ErrCodeAnalysisNotFound, "backend resource not found", nil)
	ErrServer           = errors.NewServerError(errors.ErrCodeBackendFailed, "backend server error", nil)
	ErrTransport        = errors.NewNetworkError(errors.ErrCodeBackendUnavailable, "backend unreachable", nil)
	ErrDecode           = errors.NewPayloadError(errors.ErrCodeMalformedPayload, "malformed backend response", nil)
	ErrAnalysisRejected = errors.NewValidationError(errors.ErrCodeAnalysisRejected, "analysis rejected", nil)
	ErrLoginFailed      = errors.NewAuthError(errors.ErrCodeLoginFailed, "Login failed", nil)
	ErrSignupFailed     = errors.NewAuthError(errors.ErrCodeSignupFailed, "Signup failed", nil)
)

// ID is an identifier the backend sends as either a string or a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Role is a target job role offered for analysis.
type Role struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// Analysis is the result of an upload analysis.
type Analysis struct {
	ID    ID               `json:"analysis_id"`
	Items []map[string]any `json:"analysis"`
	Raw   json.RawMessage  `json:"-"`
}

// Credentials log a user in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration signs a new user up.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is a successful login or signup.
type AuthResult struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user,omitempty"`
}

// Client calls the analysis and auth endpoints.
type Client struct {
	baseURL     string
	authBaseURL string
	apiKey      string
	http        *http.Client
	policy      UploadPolicy
	breaker     *Breaker
	logger      *errors.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBreaker replaces the breaker built from configuration.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// New creates a client from the backend section of cfg.
func New(cfg *config.Config, logger *errors.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = errors.Discard()
	}
	timeout := cfg.Backend.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		baseURL:     strings.TrimRight(cfg.Backend.BaseURL, "/"),
		authBaseURL: strings.TrimRight(cfg.AuthBaseURL(), "/"),
		apiKey:      cfg.Backend.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		policy: UploadPolicy{
			MaxSize:      cfg.Backend.Upload.MaxFileSize,
			AllowedTypes: cfg.Backend.Upload.AllowedTypes,
		},
		breaker: NewBreaker("API", cfg.Backend.CircuitBreaker, logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the upload limits the client enforces.
func (c *Client) Policy() UploadPolicy { return c.policy }

// BreakerStats reports the circuit breaker state.
func (c *Client) BreakerStats() map[string]any { return c.breaker.Stats() }

// Healthy reports whether backend calls are currently allowed through.
func (c *Client) Healthy() bool { return c.breaker.IsHealthy() }

// Roles lists analysis roles sorted by title.
func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	r, err := c.do(ctx, http.MethodGet, c.baseURL+"/roles", nil, "")
	if err != nil {
		return nil, err
	}
	if r.status != http.StatusOK {
		return nil, statusError(r, "roles")
	}

	var body struct {
		Roles []Role `json:"roles"`
	}
	if err := json.Unmarshal(r.body, &body); err != nil {
		return nil, decodeError("roles", err)
	}
	slices.SortStableFunc(body.Roles, func(a, b Role) int {
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	if body.Roles == nil {
		body.Roles = []Role{}
	}
	return body.Roles, nil
}

// AnalyzeEndpoint picks the analysis flavour: a job description wins over
// a role, and neither means a general analysis.
func AnalyzeEndpoint(roleID, jobDescription string) string {
	switch {
	case strings.TrimSpace(jobDescription) != "":
		return "/analyze/with-jd"
	case strings.TrimSpace(roleID) != "":
		return "/analyze/with-role"
	default:
		return "/analyze/general"
	}
}

// Analyze uploads a resume. The upload is validated before any request is
// made.
func (c *Client) Analyze(ctx context.Context, up Upload, roleID, jobDescription string) (*Analysis, error) {
	if err := c.policy.Validate(up.Name, up.ContentType, int64(len(up.Data))); err != nil {
		return nil, err
	}

	endpoint := AnalyzeEndpoint(roleID, jobDescription)
	body, contentType, err := analyzeForm(up, endpoint, roleID, jobDescription)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build upload form", err)
	}

	r, err := c.do(ctx, http.MethodPost, c.baseURL+endpoint, body, contentType)
	if err != nil {
		return nil, err
	}
	switch {
	case r.status == http.StatusNotFound || r.status >= 500:
		return nil, statusError(r, "analyze")
	case r.status >= 400:
		msg := responseMessage(r.body, "detail", "error")
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, rejected([]string{msg}).WithContext("status", r.status)
	}

	a, err := parseAnalysis(r.body)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Resume analyzed", "endpoint", endpoint, "analysis_id", string(a.ID))
	return a, nil
}

func analyzeForm(up Upload, endpoint, roleID, jobDescription string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename=%q`, up.Name))
	h.Set("Content-Type", DetectContentType(up.Name, up.ContentType))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", err
	}

	switch endpoint {
	case "/analyze/with-jd":
		err = w.WriteField("job_description", jobDescription)
	case "/analyze/with-role":
		err = w.WriteField("role_id", roleID)
	}
	if err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// DirectImprove fetches the improved resume payload for an analysis.
func (c *Client) DirectImprove(ctx context.Context, analysisID string) ([]byte, error) {
	id := strings.TrimSpace(analysisID)
	if id == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidAnalysisID, "analysis id is required", nil)
	}

	r, err := c.do(ctx, http.MethodGet, c.baseURL+"/direct-improve/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}
	if r.status != http.StatusOK {
		return nil, statusError(r, "direct-improve").WithContext("analysis_id", id)
	}
	if !json.Valid(r.body) {
		return nil, decodeError("direct-improve", nil).WithContext("analysis_id", id)
	}
	return r.body, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", creds, ErrLoginFailed)
}

// Signup registers a user and returns their token.
func (c *Client) Signup(ctx context.Context, reg Registration) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/signup", reg, ErrSignupFailed)
}

func (c *Client) authenticate(ctx context.Context, path string, payload any, failed *errors.AppError) (*AuthResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError(failed.Code, "failed to encode request", err)
	}

	r, err := c.do(ctx, http.MethodPost, c.authBaseURL+path, body, "application/json")
	if r == nil && err != nil {
		return nil, err
	}
	if r.status < 200 || r.status > 299 {
		msg := responseMessage(r.body, "message")
		if msg == "" {
			msg = failed.Message
		}
		if r.status >= 500 {
			return nil, errors.NewServerError(failed.Code, msg, err).WithContext("status", r.status)
		}
		return nil, errors.NewAuthError(failed.Code, msg, nil).WithContext("status", r.status)
	}

	var out AuthResult
	if err := json.Unmarshal(r.body, &out); err != nil {
		return nil, decodeError(path, err)
	}
	return &out, nil
}

// response is a buffered backend answer.
type response struct {
	status int
	body   []byte
}

// do sends one request through the breaker. Transport failures and 5xx
// answers count against the breaker; for 5xx the response is returned
// alongside the error.
func (c *Client) do(ctx context.Context, method, target string, body []byte, contentType string) (*response, error) {
	return c.breaker.Execute(func() (*response, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build request", err)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, transportError(method, target, err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, transportError(method, target, err)
		}
		out := &response{status: resp.StatusCode, body: data}
		c.logger.Debug("Backend call", "method", method, "url", target, "status", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return out, statusError(out, method+" "+req.URL.Path)
		}
		return out, nil
	})
}

func transportError(method, target string, err error) *errors.AppError {
	e := errors.NewNetworkError(errors.ErrCodeBackendUnavailable, "backend unreachable", err).
		WithContext("method", method).
		WithContext("url", target)
	if stderrors.Is(err, context.DeadlineExceeded) {
		e.WithContext("timeout", true)
	}
	return e
}

func statusError(r *response, op string) *errors.AppError {
	var e *errors.AppError
	switch {
	case r.status == http.StatusNotFound:
		e = errors.NewNotFoundError(ErrNotFound.Code, "backend resource not found", nil)
	case r.status >= 500:
		e = errors.NewServerError(ErrServer.Code, fmt.Sprintf("backend returned status %d", r.status), nil)
	default:
		msg := responseMessage(r.body, "detail", "error", "message")
		if msg == "" {
			msg = http.StatusText(r.status)
		}
		e = errors.NewValidationError(errors.ErrCodeInvalidRequest, msg, nil)
	}
	return e.WithContext("status", r.status).WithContext("operation", op)
}

func decodeError(op string, err error) *errors.AppError {
	return errors.NewPayloadError(ErrDecode.Code, "malformed backend response", err).WithContext("operation", op)
}

func rejected(reasons []string) *errors.AppError {
	return errors.NewValidationError(ErrAnalysisRejected.Code, strings.Join(reasons, "; "), nil).
		WithContext("reasons", reasons)
}

// responseMessage returns the first non-empty string field among keys.
func responseMessage(body []byte, keys ...string) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
