package util

import (
	"errors"
	"path/filepath"
	"strings"
)

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errInvalidFileName
	}
	return s, nil
}

// FileExtension returns the lower-cased extension of an uploaded file name,
// including the leading dot. Names without an extension yield "".
func FileExtension(name string) (string, error) {
	base := strings.TrimSpace(name)
	base = strings.ReplaceAll(base, "\\", "/")
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if base == "" || base == "." || base == ".." {
		return "", errInvalidFileName
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "." {
		return "", nil
	}
	for _, r := range ext[min(1, len(ext)):] {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return "", nil
		}
	}
	return ext, nil
}
