package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/warmline/warmline/pkg/core"
)

// SessionFactory constructs a session for a room. Must not block.
type SessionFactory func(roomID, identity string) *Session

// Registry is the process-wide table of agent sessions, keyed by room.
// It enforces at most one non-stopped session per room. The mutex guards
// only the table; it is never held across adapter or summarizer I/O.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	factory SessionFactory
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewRegistry creates an empty registry. Callers inject it where needed;
// there is no package-level instance.
func NewRegistry(factory SessionFactory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   logger,
	}
}

// StartForRoom starts an agent session for roomID, or returns the existing
// one. Idempotent under concurrency: N racing callers observe exactly one
// session. The session's background task is spawned before returning.
func (r *Registry) StartForRoom(roomID, identity string) (*Session, error) {
	if roomID == "" {
		return nil, core.NewInvalidRequestErrorWithParam("room_id must not be empty", "room_id")
	}
	if identity == "" {
		identity = "ai-agent"
	}

	r.mu.Lock()
	if existing, ok := r.sessions[roomID]; ok && existing.Status() != StatusStopped {
		r.mu.Unlock()
		r.logger.Info("agent already running", "room_id", roomID)
		return existing, nil
	}
	s := r.factory(roomID, identity)
	r.sessions[roomID] = s
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if err := s.Run(context.Background()); err != nil {
			r.logger.Error("agent session ended with error", "room_id", roomID, "error", err)
		}
		r.remove(roomID, s)
	}()

	r.logger.Info("agent session started", "room_id", roomID, "identity", identity, "mode", s.Mode())
	return s, nil
}

// StopForRoom stops the session for roomID and waits for its background
// task to finish. Idempotent: no session means nothing to do. After it
// returns, no further side effects from that session occur.
func (r *Registry) StopForRoom(ctx context.Context, roomID string) error {
	r.mu.Lock()
	s, ok := r.sessions[roomID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	s.Stop()
	select {
	case <-s.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.remove(roomID, s)
	r.logger.Info("agent session stopped", "room_id", roomID)
	return nil
}

// SayForRoom asks the room's agent to render text. Fails with
// core.ErrNoActiveAgent when no non-stopped session exists.
func (r *Registry) SayForRoom(roomID, text string) error {
	r.mu.Lock()
	s, ok := r.sessions[roomID]
	r.mu.Unlock()
	if !ok || s.Status() == StatusStopped {
		return core.NewNoActiveAgentError(roomID)
	}
	return s.Say(text)
}

// IsRunning reports whether a non-stopped session exists for roomID.
func (r *Registry) IsRunning(roomID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[roomID]
	r.mu.Unlock()
	return ok && s.Status() != StatusStopped
}

// Info returns a snapshot of the room's session, if any.
func (r *Registry) Info(roomID string) (Info, bool) {
	r.mu.Lock()
	s, ok := r.sessions[roomID]
	r.mu.Unlock()
	if !ok {
		return Info{}, false
	}
	return s.Snapshot(), true
}

// Shutdown stops all sessions and waits for their tasks, bounded by ctx.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	rooms := make([]string, 0, len(r.sessions))
	for roomID := range r.sessions {
		rooms = append(rooms, roomID)
	}
	r.mu.Unlock()

	for _, roomID := range rooms {
		if err := r.StopForRoom(ctx, roomID); err != nil {
			return err
		}
	}

	waitCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) remove(roomID string, s *Session) {
	r.mu.Lock()
	if current, ok := r.sessions[roomID]; ok && current == s {
		delete(r.sessions, roomID)
	}
	r.mu.Unlock()
}
