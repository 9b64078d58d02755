package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/vbonduro/grocerysync/internal/blobstore"
)

// handleGetBlob serves locally stored photos. Blob URLs are handed to
// clients as plain image addresses, so no user header is required.
func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	reader, mimeType, err := s.service.OpenBlob(r.Context(), key)
	if errors.Is(err, blobstore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log(r).Warn("open blob failed", "key", key, "error", err)
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "blob reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.log(r).Error("write blob failed", "key", key, "error", err)
	}
}
