// ABOUTME: Tests for stored reference classification

package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRef(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0644))

	tests := []struct {
		name     string
		ref      string
		wantKind RefKind
		wantVal  string
	}{
		{"https url", "https://cdn.example.com/clip.mp4", RefRemote, "https://cdn.example.com/clip.mp4"},
		{"http url uppercase", "HTTP://cdn.example.com/clip.mp4", RefRemote, "HTTP://cdn.example.com/clip.mp4"},
		{"absolute local file", local, RefLocalFile, local},
		{"relative local file", "clip.mp4", RefLocalFile, local},
		{"missing file is opaque", "missing.mp4", RefOpaque, "missing.mp4"},
		{"delivery token", "BAACAgIAAxkBAAIB", RefOpaque, "BAACAgIAAxkBAAIB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, val := ClassifyRef(tt.ref, dir)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantVal, val)
		})
	}
}
