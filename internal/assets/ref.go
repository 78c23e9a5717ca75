// ABOUTME: Classification of stored asset references
// ABOUTME: Distinguishes remote URLs, local files, and opaque delivery tokens

package assets

import (
	"os"
	"path/filepath"
	"strings"
)

// RefKind describes how a stored reference should be dereferenced by the
// delivery layer. The store itself never dereferences anything.
type RefKind int

const (
	// RefOpaque is a transport-native token the delivery layer resolves.
	RefOpaque RefKind = iota
	// RefRemote is an http(s) URL.
	RefRemote
	// RefLocalFile is a path to an existing file, resolved against baseDir
	// when relative.
	RefLocalFile
)

// ClassifyRef inspects a stored reference. For RefLocalFile the returned
// string is the absolute path; otherwise it is the reference unchanged.
func ClassifyRef(reference, baseDir string) (RefKind, string) {
	lowered := strings.ToLower(reference)
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return RefRemote, reference
	}

	candidate := reference
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}
	if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
		return RefLocalFile, candidate
	}

	return RefOpaque, reference
}
