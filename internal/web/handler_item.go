package web

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/vbonduro/grocerysync/internal/auth"
	"github.com/vbonduro/grocerysync/internal/store"
)

const maxItemNameLen = 200

func userID(r *http.Request) string {
	return auth.UserID(r.Context())
}

// handleAddItem accepts either a JSON body {"name": ...} or a multipart form
// with a "name" field and an optional "photo" file.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var (
		name  string
		photo *store.Photo
	)

	if isMultipart(r) {
		if err := parsePhotoForm(w, r); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name = r.FormValue("name")

		data, mimeType, err := s.readPhoto(r)
		switch {
		case errors.Is(err, errNoPhoto):
		case err != nil:
			writeError(w, http.StatusBadRequest, err.Error())
			return
		default:
			photo = &store.Photo{Body: bytes.NewReader(data), ContentType: mimeType}
		}
	} else {
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name = req.Name
	}

	if len(name) > maxItemNameLen {
		writeError(w, http.StatusBadRequest, "item name too long")
		return
	}

	item, err := s.service.AddItem(r.Context(), userID(r), r.PathValue("listID"), name, photo)
	if err != nil {
		s.handleError(w, r, err, "failed to add item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleSetChecked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checked *bool `json:"checked"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Checked == nil {
		writeError(w, http.StatusBadRequest, "checked is required")
		return
	}

	err := s.service.SetItemChecked(r.Context(), userID(r), r.PathValue("listID"), r.PathValue("itemID"), *req.Checked)
	if err != nil {
		s.handleError(w, r, err, "failed to update item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteItem(r.Context(), userID(r), r.PathValue("listID"), r.PathValue("itemID")); err != nil {
		s.handleError(w, r, err, "failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
