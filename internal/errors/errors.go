package errors

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeServer       ErrorType = "server"
	ErrorTypePayload      ErrorType = "payload"
	ErrorTypePrecondition ErrorType = "precondition"
	ErrorTypeAuth         ErrorType = "auth"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError with the same type and code, so package-level
// sentinels work with errors.Is regardless of message or context.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewNotFoundError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, code, message, cause)
}

func NewServerError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeServer, code, message, cause)
}

func NewPayloadError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypePayload, code, message, cause)
}

func NewPreconditionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypePrecondition, code, message, cause)
}

func NewAuthError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAuth, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// As extracts the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == typ
}

// HTTPStatus maps an error to the status code the HTTP layer answers with.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypePayload:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypePrecondition:
		return http.StatusConflict
	case ErrorTypeAuth:
		return http.StatusUnauthorized
	case ErrorTypeNetwork, ErrorTypeServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger writing JSON to stderr.
// Stdout is left to commands that print documents.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stderr, level)
}

func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	return &Logger{logger: slog.New(slog.NewJSONHandler(w, opts))}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError)
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	if appErr, ok := As(err); ok {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}
		if appErr.Cause != nil {
			logArgs = append(logArgs, "cause", appErr.Cause.Error())
		}
		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}
		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
		return
	}

	logArgs := append([]any{"error", err.Error()}, args...)
	l.logger.Error(message, logArgs...)
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// Slog exposes the underlying slog logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// ParseLevel converts a textual log level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewLogger(slogLevel), nil
}

// Common error codes
const (
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable    = "FILE_NOT_READABLE"
	ErrCodeFileTooLarge       = "FILE_TOO_LARGE"
	ErrCodeUnsupportedFile    = "UNSUPPORTED_FILE_TYPE"
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidAnalysisID  = "INVALID_ANALYSIS_ID"
	ErrCodeAnalysisNotFound   = "ANALYSIS_NOT_FOUND"
	ErrCodeAnalysisRejected   = "ANALYSIS_REJECTED"
	ErrCodeBackendFailed      = "BACKEND_FAILED"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrCodeNetworkTimeout     = "NETWORK_TIMEOUT"
	ErrCodeMalformedPayload   = "MALFORMED_PAYLOAD"
	ErrCodeTemplateNotFound   = "TEMPLATE_NOT_FOUND"
	ErrCodeSectionNotFound    = "SECTION_NOT_FOUND"
	ErrCodeNothingToUndo      = "NOTHING_TO_UNDO"
	ErrCodeWorkspaceNotFound  = "WORKSPACE_NOT_FOUND"
	ErrCodeExportFailed       = "EXPORT_FAILED"
	ErrCodeExportTarget       = "EXPORT_TARGET_NOT_FOUND"
	ErrCodeLoginFailed        = "LOGIN_FAILED"
	ErrCodeSignupFailed       = "SIGNUP_FAILED"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
	ErrCodeMissingAPIKey      = "MISSING_API_KEY"
	ErrCodeStoreFailed        = "STORE_FAILED"
)
