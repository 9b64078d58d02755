package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/grocerysync/internal/blobstore"
	"github.com/vbonduro/grocerysync/internal/service"
	"github.com/vbonduro/grocerysync/internal/store"
)

const maxJSONBody = 64 * 1024

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps a service error onto the HTTP status the client sees.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrListNotFound), errors.Is(err, store.ErrItemNotFound):
		return http.StatusNotFound
	case store.IsPrecondition(err):
		return http.StatusBadRequest
	case errors.Is(err, blobstore.ErrNotFound):
		return http.StatusNotFound
	case store.IsUpload(err):
		return http.StatusBadGateway
	case store.IsRemoteWrite(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrVisionDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err to the client. Server-side failures are logged and
// reported with msg only; client errors echo the cause.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log(r).Error(msg, "status", status, "error", err)
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

// decodeJSON reads a small JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
