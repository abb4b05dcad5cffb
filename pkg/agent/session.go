// Package agent implements the automated in-room participant: one session
// per room, driven by its own background task, plus the process-wide
// registry that enforces the one-agent-per-room invariant.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/warmline/warmline/pkg/core"
	"github.com/warmline/warmline/pkg/summarize"
	"github.com/warmline/warmline/pkg/voice"
)

// Mode selects whether the session joins real-time transport or only
// records intended actions. Decided once at construction.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeLive      Mode = "live"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
)

const (
	greetingUtterance = "Hello! I'm your AI assistant. I'm here to help during your call."
	ackResponse       = "I heard you! I'm processing your request with AI capabilities."
	apologyResponse   = "I'm sorry, I had trouble understanding that. Could you please repeat?"

	assistantSystemPrompt = "You are a voice assistant on a live customer call. " +
		"Reply in one or two short spoken sentences. Do not emit markdown."

	defaultHeartbeat = time.Second
	sayQueueSize     = 16
)

// RoomJoiner is the slice of the room service adapter a live session needs.
type RoomJoiner interface {
	IssueAccessToken(roomID, identity, displayName string) (string, error)
	RTCURL() string
}

// SessionConfig carries the collaborators for one session. Mode is
// Simulated unless both a synthesizer and a room joiner are present.
type SessionConfig struct {
	RoomID   string
	Identity string

	Rooms       RoomJoiner
	Synthesizer voice.Synthesizer
	Transcriber voice.Transcriber
	Responder   summarize.Summarizer

	Voice     string
	Heartbeat time.Duration
	Dialer    *websocket.Dialer
	Logger    *slog.Logger
}

// Session is one automated participant bound to one room. All mutation
// happens through Run, Say, and Stop; the run handle is owned here.
type Session struct {
	roomID   string
	identity string
	mode     Mode

	rooms       RoomJoiner
	synthesizer voice.Synthesizer
	transcriber voice.Transcriber
	responder   summarize.Summarizer

	voiceID   string
	heartbeat time.Duration
	dialer    *websocket.Dialer
	logger    *slog.Logger

	mu         sync.Mutex
	status     Status
	conn       *websocket.Conn
	cancel     context.CancelFunc
	startedAt  time.Time
	lastPrompt string
	utterances []string

	sayCh chan string
	done  chan struct{}
}

// NewSession constructs a session in Starting state. Nothing runs until
// Run is called.
func NewSession(cfg SessionConfig) *Session {
	mode := ModeSimulated
	if cfg.Synthesizer != nil && cfg.Rooms != nil {
		mode = ModeLive
	}
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		roomID:      cfg.RoomID,
		identity:    cfg.Identity,
		mode:        mode,
		rooms:       cfg.Rooms,
		synthesizer: cfg.Synthesizer,
		transcriber: cfg.Transcriber,
		responder:   cfg.Responder,
		voiceID:     cfg.Voice,
		heartbeat:   heartbeat,
		dialer:      dialer,
		logger:      logger,
		status:      StatusStarting,
		sayCh:       make(chan string, sayQueueSize),
		done:        make(chan struct{}),
	}
}

// RoomID returns the owning room.
func (s *Session) RoomID() string { return s.roomID }

// Identity returns the display name presented to other participants.
func (s *Session) Identity() string { return s.identity }

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.mode }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Done is closed when the background task has fully finished; after that
// no further side effects from this session occur.
func (s *Session) Done() <-chan struct{} { return s.done }

// Info is a point-in-time snapshot of the session.
type Info struct {
	RoomID     string    `json:"room_id"`
	Identity   string    `json:"identity"`
	Mode       Mode      `json:"mode"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	LastPrompt string    `json:"last_prompt,omitempty"`
	Utterances int       `json:"utterances"`
}

// Snapshot returns the session's current info.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		RoomID:     s.roomID,
		Identity:   s.identity,
		Mode:       s.mode,
		Status:     s.status,
		StartedAt:  s.startedAt,
		LastPrompt: s.lastPrompt,
		Utterances: len(s.utterances),
	}
}

// Utterances returns what a simulated session has been asked to say.
func (s *Session) Utterances() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.utterances))
	copy(out, s.utterances)
	return out
}

// Run drives the session until Stop is called, the context is canceled,
// or (in live mode) the connection is lost. It is the session's background
// task body and must be called exactly once.
func (s *Session) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.status != StatusStarting {
		// Stopped before the task was scheduled.
		s.status = StatusStopped
		s.mu.Unlock()
		cancel()
		close(s.done)
		return nil
	}
	s.cancel = cancel
	s.startedAt = time.Now()
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.status = StatusStopped
		if s.conn != nil {
			_ = s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()
		close(s.done)
	}()

	if s.mode == ModeSimulated {
		return s.runSimulated(runCtx)
	}
	return s.runLive(runCtx)
}

func (s *Session) runSimulated(ctx context.Context) error {
	// The greeting is recorded before the status flips to Running.
	s.record(greetingUtterance)

	s.mu.Lock()
	s.status = StatusRunning
	s.mu.Unlock()

	s.logger.Info("agent running in simulated mode", "room_id", s.roomID, "identity", s.identity)

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Session) runLive(ctx context.Context) error {
	token, err := s.rooms.IssueAccessToken(s.roomID, s.identity, s.identity)
	if err != nil {
		return core.NewInitFailureError(s.roomID, err)
	}

	endpoint := s.rooms.RTCURL() + "?access_token=" + url.QueryEscape(token)
	conn, resp, err := s.dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return core.NewInitFailureError(s.roomID, err)
	}

	s.mu.Lock()
	if s.status != StatusStarting {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.status = StatusRunning
	s.mu.Unlock()

	s.logger.Info("agent connected", "room_id", s.roomID, "identity", s.identity)

	readErrCh := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErrCh <- err
				return
			}
		}
	}()

	s.enqueue(greetingUtterance)

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErrCh:
			if s.Status() != StatusRunning {
				// Expected close during shutdown.
				return nil
			}
			return core.NewAdapterError("rtc_connection", err)
		case text := <-s.sayCh:
			s.speak(ctx, text)
		case <-ticker.C:
		}
	}
}

// Say requests that the agent render text. In simulated mode the utterance
// is only recorded. In live mode the request is queued for the run loop;
// delivery is not guaranteed synchronously.
func (s *Session) Say(text string) error {
	s.mu.Lock()
	if s.mode == ModeSimulated {
		s.lastPrompt = text
		s.utterances = append(s.utterances, text)
		s.mu.Unlock()
		s.logger.Info("agent would say", "room_id", s.roomID, "text", truncate(text, 100))
		return nil
	}

	if s.status != StatusRunning {
		s.mu.Unlock()
		return core.NewNoActiveAgentError(s.roomID)
	}
	if s.conn == nil {
		s.mu.Unlock()
		s.logger.Warn("room connection absent, cannot say", "room_id", s.roomID, "text", truncate(text, 100))
		return nil
	}
	s.lastPrompt = text
	s.mu.Unlock()

	select {
	case s.sayCh <- text:
	default:
		s.logger.Warn("speech queue full, dropping utterance", "room_id", s.roomID)
	}
	return nil
}

func (s *Session) enqueue(text string) {
	s.mu.Lock()
	s.lastPrompt = text
	s.mu.Unlock()
	select {
	case s.sayCh <- text:
	default:
	}
}

func (s *Session) record(text string) {
	s.mu.Lock()
	s.lastPrompt = text
	s.utterances = append(s.utterances, text)
	s.mu.Unlock()
	s.logger.Info("agent would say", "room_id", s.roomID, "text", truncate(text, 100))
}

// speak renders text and pushes it over the connection. Failures are
// warnings; speech output must never tear down the session.
func (s *Session) speak(ctx context.Context, text string) {
	syn, err := s.synthesizer.Synthesize(ctx, text, voice.SynthesizeOptions{
		Voice:  s.voiceID,
		Format: "pcm",
	})
	if err != nil {
		s.logger.Warn("speech synthesis failed", "room_id", s.roomID, "error", err)
		return
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	speak := struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "speak", Text: text}
	if err := conn.WriteJSON(speak); err != nil {
		s.logger.Warn("speak message failed", "room_id", s.roomID, "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, syn.Audio); err != nil {
		s.logger.Warn("audio publish failed", "room_id", s.roomID, "error", err)
	}
}

// ProcessSpeech turns inbound audio into a spoken response. It never
// fails: on any internal error it returns a fixed apology so the speech
// interaction cannot abort the session.
func (s *Session) ProcessSpeech(ctx context.Context, audio []byte) string {
	if s.transcriber == nil || s.responder == nil {
		return ackResponse
	}

	text, err := s.transcriber.Transcribe(ctx, audio, voice.TranscribeOptions{})
	if err != nil {
		s.logger.Warn("transcription failed", "room_id", s.roomID, "error", err)
		return apologyResponse
	}

	reply, err := s.responder.Summarize(ctx, assistantSystemPrompt, text)
	if err != nil {
		s.logger.Warn("response generation failed", "room_id", s.roomID, "error", err)
		return apologyResponse
	}
	return reply
}

// Stop ends the session. Idempotent: stopping an already-stopped session
// is a no-op. The caller observes completion through Done.
func (s *Session) Stop() {
	s.mu.Lock()
	switch s.status {
	case StatusStopping, StatusStopped:
		s.mu.Unlock()
		return
	}
	s.status = StatusStopping
	conn := s.conn
	s.conn = nil
	cancel := s.cancel
	s.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(2 * time.Second)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "agent stopping"), deadline)
		_ = conn.Close()
	}
	if cancel != nil {
		cancel()
	}
	s.logger.Info("agent stopping", "room_id", s.roomID)
}

func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
