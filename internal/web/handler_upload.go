package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/grocerysync/internal/domain"
)

const maxPhotoSize = 20 * 1024 * 1024 // 20 MB

var (
	errNoPhoto          = errors.New("photo file required")
	errUnsupportedImage = errors.New("unsupported image format")
)

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parsePhotoForm parses a multipart body no larger than maxPhotoSize.
func parsePhotoForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1024*1024)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}
	return nil
}

// readPhoto reads and sniffs the "photo" form file. It returns errNoPhoto
// when the field is absent.
func (s *Server) readPhoto(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", errNoPhoto
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read photo: %w", err)
	}
	defer closeWithLog(file, "upload file", s.logger)

	if header.Size > maxPhotoSize {
		return nil, "", fmt.Errorf("photo exceeds %d bytes", maxPhotoSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) > maxPhotoSize {
		return nil, "", fmt.Errorf("photo exceeds %d bytes", maxPhotoSize)
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, "", errUnsupportedImage
	}
	return data, mimeType, nil
}

type importFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type importResponse struct {
	Added  []*domain.GroceryItem `json:"added"`
	Failed []importFailure       `json:"failed"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := parsePhotoForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, mimeType, err := s.readPhoto(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.ImportFromPhoto(r.Context(), userID(r), r.PathValue("listID"), data, mimeType)
	if err != nil {
		s.handleError(w, r, err, "failed to import photo")
		return
	}

	resp := importResponse{Added: result.Added, Failed: make([]importFailure, 0, len(result.Failed))}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, importFailure{Name: f.Name, Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}
