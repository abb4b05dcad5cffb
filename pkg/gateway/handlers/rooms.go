package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/warmline/warmline/pkg/core"
	"github.com/warmline/warmline/pkg/room"
)

// RoomService is the slice of the room adapter the HTTP handlers use.
type RoomService interface {
	EnsureRoom(ctx context.Context, roomID string) (room.RoomInfo, error)
	ListRooms(ctx context.Context) ([]room.RoomInfo, error)
	IssueAccessToken(roomID, identity, displayName string) (string, error)
}

// TokenHandler mints a join credential. Ensuring the room exists is a
// side effect, so the first participant to ask for a token creates it.
type TokenHandler struct {
	Rooms  RoomService
	Logger *slog.Logger
}

type tokenRequest struct {
	RoomID   string `json:"room_id"`
	Identity string `json:"identity"`
	Name     string `json:"name,omitempty"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	RoomID   string `json:"room_id"`
	Identity string `json:"identity"`
}

func (h TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req = tokenRequest{
			RoomID:   q.Get("room_id"),
			Identity: q.Get("identity"),
			Name:     q.Get("name"),
		}
	case http.MethodPost:
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	default:
		writeMethodNotAllowed(w, r)
		return
	}
	if req.RoomID == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("room_id must not be empty", "room_id"))
		return
	}
	if req.Identity == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("identity must not be empty", "identity"))
		return
	}
	if req.Name == "" {
		req.Name = req.Identity
	}

	if _, err := h.Rooms.EnsureRoom(r.Context(), req.RoomID); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.Rooms.IssueAccessToken(req.RoomID, req.Identity, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:    token,
		RoomID:   req.RoomID,
		Identity: req.Identity,
	})
}

// RoomsHandler lists active rooms.
type RoomsHandler struct {
	Rooms RoomService
}

type roomsResponse struct {
	Rooms []room.RoomInfo `json:"rooms"`
}

func (h RoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}

	rooms, err := h.Rooms.ListRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []room.RoomInfo{}
	}
	writeJSON(w, http.StatusOK, roomsResponse{Rooms: rooms})
}
