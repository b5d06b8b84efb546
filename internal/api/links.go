package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumina-home/lumina-core/internal/link"
	"github.com/lumina-home/lumina-core/internal/thing"
)

// linkRequest is the body for POST and DELETE /links.
type linkRequest struct {
	ChannelUID string `json:"channel_uid"`
	ItemName   string `json:"item_name"`
}

func decodeLinkRequest(w http.ResponseWriter, r *http.Request) (linkRequest, bool) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return req, false
	}
	if req.ChannelUID == "" || req.ItemName == "" {
		writeBadRequest(w, "channel_uid and item_name are required")
		return req, false
	}
	return req, true
}

// handleListLinks returns every link.
func (s *Server) handleListLinks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.links.Links())
}

// handleCreateLink links a channel to an item.
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLinkRequest(w, r)
	if !ok {
		return
	}

	err := s.links.Link(r.Context(), thing.ChannelUID(req.ChannelUID), req.ItemName)
	if err != nil {
		switch {
		case errors.Is(err, link.ErrChannelNotFound):
			writeNotFound(w, "channel not found")
		case errors.Is(err, link.ErrItemNotFound):
			writeNotFound(w, "item not found")
		case errors.Is(err, link.ErrManagerStopped):
			writeInternalError(w, "link manager stopped")
		default:
			s.logger.Error("creating link failed", "channel", req.ChannelUID, "item", req.ItemName, "error", err)
			writeInternalError(w, "creating link failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"channel_uid": req.ChannelUID,
		"item_name":   req.ItemName,
	})
}

// handleDeleteLink unlinks a channel from an item. Unlinking a pair
// that is not linked succeeds silently.
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLinkRequest(w, r)
	if !ok {
		return
	}

	if err := s.links.Unlink(r.Context(), thing.ChannelUID(req.ChannelUID), req.ItemName); err != nil {
		if errors.Is(err, link.ErrManagerStopped) {
			writeInternalError(w, "link manager stopped")
			return
		}
		s.logger.Error("deleting link failed", "channel", req.ChannelUID, "item", req.ItemName, "error", err)
		writeInternalError(w, "deleting link failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
