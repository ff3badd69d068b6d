package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// FileExt returns the lowercased last dot-segment of a filename, without
// the dot. Empty when the name has no extension.
func FileExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return strings.TrimPrefix(ext, ".")
}

// SanitizeFilename replaces characters outside [a-zA-Z0-9-_.] so uploaded
// names are safe to use on disk.
func SanitizeFilename(filename string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, filename)
}

// WriteTempFile writes content to a scoped temporary file for engines
// that require a file path. The returned cleanup must be called on every
// exit path of the processing attempt that owns the file.
func WriteTempFile(content []byte, ext string) (string, func(), error) {
	pattern := "upload-*"
	if ext != "" {
		pattern = "upload-*." + ext
	}
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	path := tmp.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("Failed to clean up temp file %s: %v", path, err)
		}
	}
	return path, cleanup, nil
}
