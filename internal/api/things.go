package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumina-home/lumina-core/internal/thing"
)

// createThingRequest is the body for POST /things.
type createThingRequest struct {
	UID       string       `json:"uid"`
	TypeUID   string       `json:"type_uid"`
	BridgeUID string       `json:"bridge_uid,omitempty"`
	Label     string       `json:"label"`
	Config    thing.Config `json:"config,omitempty"`
}

// setThingStatusRequest is the body for PUT /things/{uid}/status.
type setThingStatusRequest struct {
	Status string `json:"status"`
}

// handleListThings returns all things.
func (s *Server) handleListThings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.things.GetAll())
}

// handleGetThing returns a single thing by UID.
func (s *Server) handleGetThing(w http.ResponseWriter, r *http.Request) {
	uid := thing.UID(chi.URLParam(r, "uid"))

	t, err := s.things.Get(uid)
	if err != nil {
		writeNotFound(w, "thing not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleCreateThing materialises a thing from its type and adds it.
func (s *Server) handleCreateThing(w http.ResponseWriter, r *http.Request) {
	var req createThingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UID == "" || req.TypeUID == "" {
		writeBadRequest(w, "uid and type_uid are required")
		return
	}

	var bridgeUID *thing.UID
	if req.BridgeUID != "" {
		b := thing.UID(req.BridgeUID)
		bridgeUID = &b
	}

	created, err := s.things.CreateThingOfType(req.TypeUID, thing.UID(req.UID), bridgeUID, req.Label, req.Config)
	if err != nil {
		if errors.Is(err, thing.ErrTypeNotFound) || errors.Is(err, thing.ErrChannelTypeNotFound) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "creating thing failed")
		return
	}

	if err := s.things.Add(r.Context(), created); err != nil {
		switch {
		case errors.Is(err, thing.ErrThingExists):
			writeConflict(w, "thing already exists")
		case errors.Is(err, thing.ErrInvalidThing):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("adding thing failed", "uid", req.UID, "error", err)
			writeInternalError(w, "adding thing failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleDeleteThing removes a thing. Its links are cleaned up
// asynchronously by the link manager.
func (s *Server) handleDeleteThing(w http.ResponseWriter, r *http.Request) {
	uid := thing.UID(chi.URLParam(r, "uid"))

	removed, err := s.things.Remove(r.Context(), uid)
	if err != nil {
		if errors.Is(err, thing.ErrThingNotFound) {
			writeNotFound(w, "thing not found")
			return
		}
		s.logger.Error("removing thing failed", "uid", uid, "error", err)
		writeInternalError(w, "removing thing failed")
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// handleSetThingStatus updates a thing's lifecycle status.
func (s *Server) handleSetThingStatus(w http.ResponseWriter, r *http.Request) {
	uid := thing.UID(chi.URLParam(r, "uid"))

	var req setThingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Status == "" {
		writeBadRequest(w, "status is required")
		return
	}

	if err := s.things.SetStatus(r.Context(), uid, thing.Status(req.Status)); err != nil {
		if errors.Is(err, thing.ErrThingNotFound) {
			writeNotFound(w, "thing not found")
			return
		}
		s.logger.Error("setting thing status failed", "uid", uid, "error", err)
		writeInternalError(w, "setting thing status failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uid": string(uid), "status": req.Status})
}

// handleGetChannelType returns a channel type's descriptor, including
// its state metadata, for UI rendering.
func (s *Server) handleGetChannelType(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	ct := s.things.ChannelType(uid)
	if ct == nil {
		writeNotFound(w, "channel type not found")
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

// handleThingLinks returns every link of the thing's channels.
func (s *Server) handleThingLinks(w http.ResponseWriter, r *http.Request) {
	uid := thing.UID(chi.URLParam(r, "uid"))

	type channelLinks struct {
		ChannelUID string   `json:"channel_uid"`
		Items      []string `json:"items"`
	}

	t, err := s.things.Get(uid)
	if err != nil {
		writeNotFound(w, "thing not found")
		return
	}

	out := make([]channelLinks, 0, len(t.Channels))
	for _, ch := range t.Channels {
		out = append(out, channelLinks{
			ChannelUID: ch.UID.String(),
			Items:      s.links.LinkedItems(ch.UID),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeleteThingLinks removes every link of the thing's channels
// while leaving the thing in place.
func (s *Server) handleDeleteThingLinks(w http.ResponseWriter, r *http.Request) {
	uid := thing.UID(chi.URLParam(r, "uid"))

	if _, err := s.things.Get(uid); err != nil {
		writeNotFound(w, "thing not found")
		return
	}
	if err := s.links.RemoveLinksForThing(r.Context(), uid); err != nil {
		s.logger.Error("removing thing links failed", "uid", uid, "error", err)
		writeInternalError(w, "removing thing links failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
