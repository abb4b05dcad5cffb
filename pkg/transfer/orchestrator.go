// Package transfer sequences the two-phase warm handoff: brief the
// incoming agent with a call summary, then vacate the outgoing agent's
// slot in the room. The phases are independently callable; the incoming
// agent joins through a separately issued access token.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warmline/warmline/pkg/room"
	"github.com/warmline/warmline/pkg/store"
	"github.com/warmline/warmline/pkg/summarize"
)

const (
	summarySystemPrompt = "You are a helpful assistant that creates concise summaries of " +
		"customer service calls. Focus on the key issue, progress made, and what still " +
		"needs to be done. Keep it under 200 words."

	mockSummaryMarker  = "[mock summary]"
	mockContextPreview = 240
)

// RoomAdmin is the slice of the room service adapter the orchestrator
// uses to vacate the outgoing agent's slot.
type RoomAdmin interface {
	RemoveParticipant(ctx context.Context, roomID, identity string) (room.RemoveResult, error)
}

// Request asks for a warm transfer. RoomID is optional on Initiate and
// required on Complete.
type Request struct {
	RoomID           string `json:"room_id,omitempty"`
	CallContext      string `json:"call_context,omitempty"`
	OutgoingIdentity string `json:"outgoing_identity,omitempty"`
	IncomingIdentity string `json:"incoming_identity,omitempty"`
}

// Brief is the result of phase one.
type Brief struct {
	Summary    string `json:"summary"`
	Summarizer string `json:"summarizer"`
	Degraded   bool   `json:"degraded,omitempty"`
}

// Outcome is the result of phase two. Success is false when the
// outgoing participant was not present; transport failures are returned
// as errors instead.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Config wires an orchestrator. Summarizer and Store may be nil;
// summarization then degrades to a mock brief and records stay
// in memory only as log lines.
type Config struct {
	Rooms      RoomAdmin
	Summarizer summarize.Summarizer
	Store      store.Store

	// StrictOrder requires an Initiate for a room before its Complete.
	StrictOrder bool

	Logger *slog.Logger
}

// Orchestrator coordinates the two transfer phases.
type Orchestrator struct {
	rooms       RoomAdmin
	summarizer  summarize.Summarizer
	store       store.Store
	strictOrder bool
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	briefed map[string]struct{}
}

// New constructs an orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		rooms:       cfg.Rooms,
		summarizer:  cfg.Summarizer,
		store:       cfg.Store,
		strictOrder: cfg.StrictOrder,
		logger:      logger,
		now:         time.Now,
		briefed:     make(map[string]struct{}),
	}
}

// Initiate runs phase one: digest the call context into a summary for
// the incoming agent. With no summarizer configured it degrades to a
// marked echo of the context instead of failing the transfer.
func (o *Orchestrator) Initiate(ctx context.Context, req Request) (Brief, error) {
	brief := o.summarizeContext(ctx, req.CallContext)

	if req.RoomID != "" {
		o.mu.Lock()
		o.briefed[req.RoomID] = struct{}{}
		o.mu.Unlock()
	}

	o.persistBrief(ctx, req, brief)
	o.logger.Info("transfer initiated",
		"room_id", req.RoomID,
		"summarizer", brief.Summarizer,
		"summary_len", len(brief.Summary))
	return brief, nil
}

func (o *Orchestrator) summarizeContext(ctx context.Context, callContext string) Brief {
	if o.summarizer == nil {
		return Brief{Summary: mockSummary(callContext), Summarizer: "mock", Degraded: true}
	}

	userText := "Please summarize this call for a warm transfer to another agent:\n\n" + callContext
	summary, err := o.summarizer.Summarize(ctx, summarySystemPrompt, userText)
	if err != nil {
		// A failed summarizer call degrades the same way an absent one
		// does; the handoff itself must stay possible.
		o.logger.Warn("summarization failed, using mock summary", "error", err)
		return Brief{Summary: mockSummary(callContext), Summarizer: "mock", Degraded: true}
	}
	return Brief{Summary: summary, Summarizer: o.summarizer.Name()}
}

func mockSummary(callContext string) string {
	if len(callContext) > mockContextPreview {
		callContext = callContext[:mockContextPreview]
	}
	return mockSummaryMarker + " " + callContext
}

func (o *Orchestrator) persistBrief(ctx context.Context, req Request, brief Brief) {
	if o.store == nil {
		return
	}
	rec := store.TransferRecord{
		ID:               uuid.NewString(),
		RoomID:           req.RoomID,
		CallContext:      req.CallContext,
		Summary:          brief.Summary,
		SummarizerName:   brief.Summarizer,
		OutgoingIdentity: req.OutgoingIdentity,
		IncomingIdentity: req.IncomingIdentity,
		CreatedAt:        o.now().UTC(),
	}
	if err := o.store.SaveTransfer(ctx, rec); err != nil {
		o.logger.Warn("transfer record not persisted", "room_id", req.RoomID, "error", err)
	}
}

// Complete runs phase two: remove the outgoing agent from the room.
// The outcome distinguishes "participant was not there" (Success false,
// explanatory message) from a transport failure, which is returned as
// an error for the boundary to surface as a hard failure.
func (o *Orchestrator) Complete(ctx context.Context, req Request) (Outcome, error) {
	if o.strictOrder {
		o.mu.Lock()
		_, ok := o.briefed[req.RoomID]
		o.mu.Unlock()
		if !ok {
			return Outcome{
				Success: false,
				Message: fmt.Sprintf("transfer for %s has not been initiated", req.RoomID),
			}, nil
		}
	}

	res, err := o.rooms.RemoveParticipant(ctx, req.RoomID, req.OutgoingIdentity)
	if err != nil {
		return Outcome{}, err
	}
	if !res.Found {
		return Outcome{
			Success: false,
			Message: fmt.Sprintf("could not automatically remove %s from %s: participant not found",
				req.OutgoingIdentity, req.RoomID),
		}, nil
	}

	o.mu.Lock()
	delete(o.briefed, req.RoomID)
	o.mu.Unlock()

	if o.store != nil {
		if err := o.store.MarkCompleted(ctx, req.RoomID, o.now().UTC()); err != nil {
			o.logger.Warn("transfer completion not persisted", "room_id", req.RoomID, "error", err)
		}
	}

	o.logger.Info("transfer completed", "room_id", req.RoomID, "outgoing_identity", req.OutgoingIdentity)
	return Outcome{
		Success: true,
		Message: fmt.Sprintf("transfer completed: %s removed from %s", req.OutgoingIdentity, req.RoomID),
	}, nil
}
