package web

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/vbonduro/grocerysync/internal/blobstore"
	"github.com/vbonduro/grocerysync/internal/service"
	"github.com/vbonduro/grocerysync/internal/store"
)

func TestAllowedImageMIME(t *testing.T) {
	tests := []struct {
		name         string
		data         []byte
		wantMIME     string
		wantDetected bool
	}{
		{
			name:         "JPEG",
			data:         []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			wantMIME:     "image/jpeg",
			wantDetected: true,
		},
		{
			name:         "PNG",
			data:         []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00},
			wantMIME:     "image/png",
			wantDetected: true,
		},
		{
			name:         "GIF",
			data:         []byte("GIF89a"),
			wantMIME:     "image/gif",
			wantDetected: true,
		},
		{
			name:         "WebP",
			data:         append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 10)...),
			wantMIME:     "image/webp",
			wantDetected: true,
		},
		{
			name:         "RIFF but not WebP",
			data:         append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 10)...),
			wantMIME:     "",
			wantDetected: false,
		},
		{
			name:         "PDF disguised as image",
			data:         []byte("%PDF-1.4 malicious content"),
			wantMIME:     "",
			wantDetected: false,
		},
		{
			name:         "empty",
			data:         []byte{},
			wantMIME:     "",
			wantDetected: false,
		},
		{
			name:         "too short for WebP check",
			data:         []byte("RIFF"),
			wantMIME:     "",
			wantDetected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMIME, gotDetected := allowedImageMIME(tt.data)
			if gotDetected != tt.wantDetected {
				t.Errorf("allowedImageMIME() detected = %v, want %v", gotDetected, tt.wantDetected)
			}
			if gotMIME != tt.wantMIME {
				t.Errorf("allowedImageMIME() mimeType = %q, want %q", gotMIME, tt.wantMIME)
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"precondition", &store.Error{Op: "add item", Kind: store.KindPrecondition, Err: store.ErrEmptyName}, http.StatusBadRequest},
		{"upload", &store.Error{Op: "add item", Kind: store.KindUpload, Err: errors.New("s3 down")}, http.StatusBadGateway},
		{"remote write", &store.Error{Op: "add item", Kind: store.KindRemoteWrite, Err: errors.New("db down")}, http.StatusServiceUnavailable},
		{"wrapped precondition", fmt.Errorf("outer: %w", &store.Error{Kind: store.KindPrecondition, Err: store.ErrNoUser}), http.StatusBadRequest},
		{"blob not found", blobstore.ErrNotFound, http.StatusNotFound},
		{"list not found", &store.Error{Op: "rename list", Kind: store.KindPrecondition, Err: store.ErrListNotFound}, http.StatusNotFound},
		{"item not found", &store.Error{Op: "set item checked", Kind: store.KindPrecondition, Err: store.ErrItemNotFound}, http.StatusNotFound},
		{"vision disabled", service.ErrVisionDisabled, http.StatusNotImplemented},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
