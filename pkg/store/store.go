// Package store persists transfer records. The orchestrator writes one
// record per summarization and marks it completed when the handoff
// finishes; persistence is best effort and never blocks a transfer.
package store

import (
	"context"
	"time"
)

// TransferRecord is one warm-transfer attempt.
type TransferRecord struct {
	ID               string    `json:"id"`
	RoomID           string    `json:"room_id,omitempty"`
	CallContext      string    `json:"call_context"`
	Summary          string    `json:"summary"`
	SummarizerName   string    `json:"summarizer,omitempty"`
	OutgoingIdentity string    `json:"outgoing_identity,omitempty"`
	IncomingIdentity string    `json:"incoming_identity,omitempty"`
	Completed        bool      `json:"completed"`
	CreatedAt        time.Time `json:"created_at"`
	CompletedAt      time.Time `json:"completed_at,omitzero"`
}

// Store reads and writes transfer records.
type Store interface {
	SaveTransfer(ctx context.Context, rec TransferRecord) error
	MarkCompleted(ctx context.Context, roomID string, completedAt time.Time) error
	// ListTransfers returns records newest first. An empty roomID
	// matches every room.
	ListTransfers(ctx context.Context, roomID string, limit int) ([]TransferRecord, error)
	GetTransfer(ctx context.Context, id string) (TransferRecord, error)
	Close()
}
