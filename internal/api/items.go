package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumina-home/lumina-core/internal/item"
)

// createItemRequest is the body for POST /items.
type createItemRequest struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Label string   `json:"label,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// renameItemRequest is the body for POST /items/{name}/rename.
type renameItemRequest struct {
	NewName string `json:"new_name"`
}

// handleListItems returns all items.
func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.items.GetAll())
}

// handleGetItem returns a single item by name.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	i, err := s.items.Get(name)
	if err != nil {
		writeNotFound(w, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, i)
}

// handleCreateItem adds a new item.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	i := &item.Item{Name: req.Name, Type: req.Type, Label: req.Label, Tags: req.Tags}
	if err := s.items.Add(r.Context(), i); err != nil {
		switch {
		case errors.Is(err, item.ErrItemExists):
			writeConflict(w, "item already exists")
		case errors.Is(err, item.ErrInvalidItem):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("adding item failed", "name", req.Name, "error", err)
			writeInternalError(w, "adding item failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, i)
}

// handleDeleteItem removes an item. Its links are cleaned up
// asynchronously by the link manager.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	removed, err := s.items.Remove(r.Context(), name)
	if err != nil {
		if errors.Is(err, item.ErrItemNotFound) {
			writeNotFound(w, "item not found")
			return
		}
		s.logger.Error("removing item failed", "name", name, "error", err)
		writeInternalError(w, "removing item failed")
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// handleRenameItem renames an item. Links addressed to the old name are
// dropped; auto-linking may re-establish links for the new name.
func (s *Server) handleRenameItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req renameItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	renamed, err := s.items.Rename(r.Context(), name, req.NewName)
	if err != nil {
		switch {
		case errors.Is(err, item.ErrItemNotFound):
			writeNotFound(w, "item not found")
		case errors.Is(err, item.ErrItemExists):
			writeConflict(w, "target name already exists")
		case errors.Is(err, item.ErrInvalidItem):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("renaming item failed", "name", name, "error", err)
			writeInternalError(w, "renaming item failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

// handleItemLinks returns the channels linked to the item.
func (s *Server) handleItemLinks(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if _, err := s.items.Get(name); err != nil {
		writeNotFound(w, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, s.links.LinkedChannels(name))
}
