package backend

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"
)

// Accepted resume MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDoc  = "application/msword"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extensionTypes = map[string]string{
	".pdf":  MIMEPDF,
	".doc":  MIMEDoc,
	".docx": MIMEDocx,
}

// Upload is a resume file sent for analysis.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadPolicy bounds what may be sent for analysis.
type UploadPolicy struct {
	MaxSize      int64
	AllowedTypes []string
}

// DefaultUploadPolicy accepts PDF and Word files up to 2 MiB.
var DefaultUploadPolicy = UploadPolicy{
	MaxSize:      config.DefaultMaxUploadSize,
	AllowedTypes: []string{MIMEPDF, MIMEDoc, MIMEDocx},
}

// ValidateUpload checks a file against DefaultUploadPolicy.
func ValidateUpload(name, contentType string, size int64) error {
	return DefaultUploadPolicy.Validate(name, contentType, size)
}

// DetectContentType returns contentType, or the type implied by the file
// extension when contentType is empty or generic.
func DetectContentType(name, contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		return extensionTypes[strings.ToLower(filepath.Ext(name))]
	}
	return ct
}

// Validate rejects missing, oversized or unsupported files.
func (p UploadPolicy) Validate(name, contentType string, size int64) error {
	if size <= 0 {
		return errors.NewPreconditionError(errors.ErrCodeInvalidRequest, "Please upload a resume first.", nil)
	}

	allowed := p.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultUploadPolicy.AllowedTypes
	}
	ct := DetectContentType(name, contentType)
	if !slices.Contains(allowed, ct) {
		return errors.NewValidationError(errors.ErrCodeUnsupportedFile, "Please upload a PDF or DOC file.", nil).
			WithContext("file", name).
			WithContext("content_type", contentType)
	}

	limit := p.MaxSize
	if limit <= 0 {
		limit = DefaultUploadPolicy.MaxSize
	}
	if size > limit {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File size must be less than %s.", humanSize(limit)), nil).
			WithContext("file", name).
			WithContext("size", size)
	}
	return nil
}

func humanSize(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
