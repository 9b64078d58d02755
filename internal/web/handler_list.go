package web

import (
	"net/http"
	"strings"
)

const maxListNameLen = 200

type listNameRequest struct {
	Name string `json:"name"`
}

// readListName decodes and bounds a list name. Emptiness is left to the store.
func readListName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req listNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if len(name) > maxListNameLen {
		writeError(w, http.StatusBadRequest, "list name too long")
		return "", false
	}
	return name, true
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	name, ok := readListName(w, r)
	if !ok {
		return
	}

	list, err := s.service.CreateList(r.Context(), userID(r), name)
	if err != nil {
		s.handleError(w, r, err, "failed to create list")
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleRenameList(w http.ResponseWriter, r *http.Request) {
	name, ok := readListName(w, r)
	if !ok {
		return
	}

	if err := s.service.RenameList(r.Context(), userID(r), r.PathValue("listID"), name); err != nil {
		s.handleError(w, r, err, "failed to rename list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteList(r.Context(), userID(r), r.PathValue("listID")); err != nil {
		s.handleError(w, r, err, "failed to delete list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
