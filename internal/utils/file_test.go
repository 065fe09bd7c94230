package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(file, []byte(`{}`), 0600))
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0600))

	assert.NoError(t, ValidateInputFile(file))
	assert.Error(t, ValidateInputFile(""))
	assert.ErrorContains(t, ValidateInputFile(filepath.Join(dir, "missing.json")), "does not exist")
	assert.ErrorContains(t, ValidateInputFile(dir), "directory")
	assert.ErrorContains(t, ValidateInputFile(empty), "empty")
}

func TestEnsureParentDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "nested", "resume.pdf")

	require.NoError(t, EnsureParentDir(target))
	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, EnsureParentDir(""))
	assert.NoError(t, EnsureParentDir("resume.pdf"))
}

func TestIsPayloadFile(t *testing.T) {
	assert.True(t, IsPayloadFile("resume.json"))
	assert.True(t, IsPayloadFile("RESUME.JSON"))
	assert.False(t, IsPayloadFile("resume.txt"))
	assert.False(t, IsPayloadFile("resume"))
}

func TestLooksLikeObject(t *testing.T) {
	assert.True(t, LooksLikeObject([]byte("  \n{\"improved_resume\":{}}")))
	assert.False(t, LooksLikeObject([]byte("[1,2]")))
	assert.False(t, LooksLikeObject([]byte("   ")))
	assert.False(t, LooksLikeObject(nil))
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536 * 1024, "1.5 MB"},
		{10 * 1024 * 1024, "10.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFileSize(tt.size))
	}
}
