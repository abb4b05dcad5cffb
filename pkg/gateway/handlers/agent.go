package handlers

import (
	"context"
	"net/http"

	"github.com/warmline/warmline/pkg/agent"
	"github.com/warmline/warmline/pkg/core"
)

// AgentRunner is the slice of the agent registry the HTTP handlers use.
type AgentRunner interface {
	StartForRoom(roomID, identity string) (*agent.Session, error)
	StopForRoom(ctx context.Context, roomID string) error
	SayForRoom(roomID, text string) error
	IsRunning(roomID string) bool
	Info(roomID string) (agent.Info, bool)
}

// StartAgentHandler starts (or returns) the room's agent session.
// DefaultIdentity is used when the request does not name one.
type StartAgentHandler struct {
	Agents          AgentRunner
	DefaultIdentity string
}

type startAgentRequest struct {
	RoomID   string `json:"room_id"`
	Identity string `json:"identity,omitempty"`
}

func (h StartAgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}

	var req startAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Identity == "" {
		req.Identity = h.DefaultIdentity
	}

	s, err := h.Agents.StartForRoom(req.RoomID, req.Identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// StopAgentHandler stops the room's agent session, if any.
type StopAgentHandler struct {
	Agents AgentRunner
}

type stopAgentRequest struct {
	RoomID string `json:"room_id"`
}

func (h StopAgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}

	var req stopAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RoomID == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("room_id must not be empty", "room_id"))
		return
	}

	if err := h.Agents.StopForRoom(r.Context(), req.RoomID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

// SayAgentHandler asks the room's agent to render text.
type SayAgentHandler struct {
	Agents AgentRunner
}

type sayAgentRequest struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

func (h SayAgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}

	var req sayAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RoomID == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("room_id must not be empty", "room_id"))
		return
	}
	if req.Text == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("text must not be empty", "text"))
		return
	}

	if err := h.Agents.SayForRoom(req.RoomID, req.Text); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"queued": true})
}

// AgentStatusHandler reports whether a room has a live agent and its info.
type AgentStatusHandler struct {
	Agents AgentRunner
}

type agentStatusResponse struct {
	Running bool        `json:"running"`
	Agent   *agent.Info `json:"agent,omitempty"`
}

func (h AgentStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("room_id query parameter is required", "room_id"))
		return
	}

	resp := agentStatusResponse{Running: h.Agents.IsRunning(roomID)}
	if info, ok := h.Agents.Info(roomID); ok {
		resp.Agent = &info
	}
	writeJSON(w, http.StatusOK, resp)
}
