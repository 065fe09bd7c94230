package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown", "html"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "html", format: "html", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{
			name:          "unknown format",
			format:        "yaml",
			supported:     supported,
			expectedError: "unsupported output format 'yaml'. Supported formats: [json text markdown html]",
		},
		{
			name:          "case sensitive",
			format:        "JSON",
			supported:     supported,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown html]",
		},
		{
			name:          "empty format",
			format:        "",
			supported:     []string{"json"},
			expectedError: "unsupported output format ''. Supported formats: [json]",
		},
		{name: "no restrictions", format: "xml", supported: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedError, err.Error())
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "text"}, GetSupportedFormats([]string{"json", "text"}))
	assert.Empty(t, GetSupportedFormats(nil))
}

func TestValidateChoice(t *testing.T) {
	allowed := []string{"print", "pdf"}

	assert.NoError(t, ValidateChoice("strategy", "pdf", allowed))
	assert.NoError(t, ValidateChoice("strategy", "", allowed), "empty falls back to config")

	err := ValidateChoice("strategy", "docx", allowed)
	require.Error(t, err)
	assert.Equal(t, `invalid --strategy "docx" (want one of: print, pdf)`, err.Error())
}

func TestCompleteChoices(t *testing.T) {
	allowed := []string{"high", "medium", "low", "all"}

	assert.Equal(t, []string{"medium"}, CompleteChoices(allowed, "m"))
	assert.Equal(t, allowed, CompleteChoices(allowed, ""))
	assert.Empty(t, CompleteChoices(allowed, "x"))
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown", "html"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("html", supported)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supported)
		}
	})
}
