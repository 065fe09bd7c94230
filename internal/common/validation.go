package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}

// ValidateChoice checks an enum flag value. Empty values are accepted so
// that flags fall back to their configured default.
func ValidateChoice(flag, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid --%s %q (want one of: %s)", flag, value, strings.Join(allowed, ", "))
}

// CompleteChoices filters allowed values by prefix for shell completion.
func CompleteChoices(allowed []string, toComplete string) []string {
	out := make([]string, 0, len(allowed))
	for _, v := range allowed {
		if strings.HasPrefix(v, toComplete) {
			out = append(out, v)
		}
	}
	return out
}
