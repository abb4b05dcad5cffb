package handlers

import (
	"context"
	"net/http"

	"github.com/warmline/warmline/pkg/core"
	"github.com/warmline/warmline/pkg/transfer"
)

// Transferer runs the two warm-transfer phases.
type Transferer interface {
	Initiate(ctx context.Context, req transfer.Request) (transfer.Brief, error)
	Complete(ctx context.Context, req transfer.Request) (transfer.Outcome, error)
}

// InitiateTransferHandler runs phase one: summarize the call context so
// the incoming agent can be briefed.
type InitiateTransferHandler struct {
	Transfers Transferer
}

type initiateTransferRequest struct {
	RoomID           string `json:"room_id,omitempty"`
	CallContext      string `json:"call_context"`
	OutgoingIdentity string `json:"outgoing_identity,omitempty"`
	IncomingIdentity string `json:"incoming_identity,omitempty"`
}

func (h InitiateTransferHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}

	var req initiateTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CallContext == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("call_context must not be empty", "call_context"))
		return
	}

	brief, err := h.Transfers.Initiate(r.Context(), transfer.Request{
		RoomID:           req.RoomID,
		CallContext:      req.CallContext,
		OutgoingIdentity: req.OutgoingIdentity,
		IncomingIdentity: req.IncomingIdentity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

// CompleteTransferHandler runs phase two: vacate the outgoing agent's
// slot. A missing participant is a structured success=false outcome,
// not an HTTP error; only transport failures surface as errors.
type CompleteTransferHandler struct {
	Transfers Transferer
}

type completeTransferRequest struct {
	RoomID           string `json:"room_id"`
	OutgoingIdentity string `json:"outgoing_identity"`
	IncomingIdentity string `json:"incoming_identity,omitempty"`
}

func (h CompleteTransferHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}

	var req completeTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RoomID == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("room_id must not be empty", "room_id"))
		return
	}
	if req.OutgoingIdentity == "" {
		writeError(w, r, core.NewInvalidRequestErrorWithParam("outgoing_identity must not be empty", "outgoing_identity"))
		return
	}

	outcome, err := h.Transfers.Complete(r.Context(), transfer.Request{
		RoomID:           req.RoomID,
		OutgoingIdentity: req.OutgoingIdentity,
		IncomingIdentity: req.IncomingIdentity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
