package core

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type LocalFile struct {
	Name     string
	MimeType string
	Size     int64
	Content  string
}

// EncodeFile reads a file from disk and encodes it the same way the
// browser uploader does.
func EncodeFile(path string) (*LocalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	mimeType := DetectMimeType(filepath.Base(path), data)
	return &LocalFile{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Size:     int64(len(data)),
		Content:  EncodeBytes(data, mimeType),
	}, nil
}

// DetectMimeType prefers the extension and falls back to content sniffing.
func DetectMimeType(name string, data []byte) string {
	if byExt, ok := NormalizeMimeType(mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))); ok {
		return byExt
	}
	if len(data) == 0 {
		return DefaultMimeType
	}
	if sniffed, ok := NormalizeMimeType(http.DetectContentType(data)); ok {
		return sniffed
	}
	return DefaultMimeType
}

// MaxMimeTypeLength bounds a stored media type.
const MaxMimeTypeLength = 255

// NormalizeMimeType reduces a Content-Type value to a lowercase type/subtype
// with parameters dropped. It reports false for anything that does not parse
// or could not be embedded in a data URL header.
func NormalizeMimeType(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil || !strings.Contains(mediaType, "/") {
		return "", false
	}
	normalized := mime.FormatMediaType(mediaType, nil)
	if normalized == "" || len(normalized) > MaxMimeTypeLength {
		return "", false
	}
	return normalized, true
}
