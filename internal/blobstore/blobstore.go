package blobstore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Open and Delete for unknown keys.
var ErrNotFound = errors.New("blob not found")

// BlobStore stores uploaded files under caller-chosen keys. Upload returns an
// absolute URL the stored object can be fetched from.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (url string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// ExtensionFor maps an image MIME type to a file extension.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// ContentTypeFor maps a key's extension back to a MIME type.
func ContentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
