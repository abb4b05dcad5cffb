// Package server wires the gateway: room adapter, agent registry,
// transfer orchestrator, and the HTTP surface over them.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/warmline/warmline/pkg/agent"
	"github.com/warmline/warmline/pkg/gateway/config"
	"github.com/warmline/warmline/pkg/gateway/handlers"
	"github.com/warmline/warmline/pkg/gateway/lifecycle"
	"github.com/warmline/warmline/pkg/gateway/mw"
	"github.com/warmline/warmline/pkg/room"
	"github.com/warmline/warmline/pkg/store"
	"github.com/warmline/warmline/pkg/summarize"
	"github.com/warmline/warmline/pkg/transfer"
	"github.com/warmline/warmline/pkg/voice"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	rooms     *room.Client
	agents    *agent.Registry
	transfers *transfer.Orchestrator
	records   store.Store
	lc        *lifecycle.Lifecycle
}

// New wires a server from configuration. records may be nil; transfer
// history then lives in process memory only.
func New(cfg config.Config, logger *slog.Logger, records store.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if records == nil {
		records = store.NewMemory()
	}

	rooms := room.NewClient(cfg.RoomServiceURL, cfg.RoomServiceAPIKey, cfg.RoomServiceAPISecret,
		room.WithTokenTTL(cfg.TokenTTL))

	var summarizer summarize.Summarizer
	switch {
	case cfg.GroqAPIKey != "":
		var opts []summarize.GroqOption
		if cfg.GroqModel != "" {
			opts = append(opts, summarize.WithGroqModel(cfg.GroqModel))
		}
		summarizer = summarize.NewGroq(cfg.GroqAPIKey, opts...)
	case cfg.GeminiAPIKey != "":
		var opts []summarize.GeminiOption
		if cfg.GeminiModel != "" {
			opts = append(opts, summarize.WithGeminiModel(cfg.GeminiModel))
		}
		summarizer = summarize.NewGemini(cfg.GeminiAPIKey, opts...)
	}

	var synthesizer voice.Synthesizer
	var transcriber voice.Transcriber
	if cfg.TTSAPIKey != "" {
		cartesia := voice.NewCartesia(cfg.TTSAPIKey)
		synthesizer = cartesia
		transcriber = cartesia
	}

	agents := agent.NewRegistry(func(roomID, identity string) *agent.Session {
		return agent.NewSession(agent.SessionConfig{
			RoomID:      roomID,
			Identity:    identity,
			Rooms:       rooms,
			Synthesizer: synthesizer,
			Transcriber: transcriber,
			Responder:   summarizer,
			Voice:       cfg.TTSVoice,
			Heartbeat:   cfg.AgentHeartbeat,
			Logger:      logger,
		})
	}, logger)

	transfers := transfer.New(transfer.Config{
		Rooms:       rooms,
		Summarizer:  summarizer,
		Store:       records,
		StrictOrder: cfg.StrictTransferOrder,
		Logger:      logger,
	})

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		rooms:     rooms,
		agents:    agents,
		transfers: transfers,
		records:   records,
		lc:        &lifecycle.Lifecycle{},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/", handlers.IndexHandler{})
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg, Lifecycle: s.lc})

	s.mux.Handle("/get-token", handlers.TokenHandler{Rooms: s.rooms, Logger: s.logger})
	s.mux.Handle("/rooms", handlers.RoomsHandler{Rooms: s.rooms})

	s.mux.Handle("/initiate-transfer", handlers.InitiateTransferHandler{Transfers: s.transfers})
	s.mux.Handle("/complete-transfer", handlers.CompleteTransferHandler{Transfers: s.transfers})
	s.mux.Handle("/transfers", handlers.TransferRecordsHandler{Store: s.records})
	s.mux.Handle("/transfers/", handlers.TransferRecordsHandler{Store: s.records})

	s.mux.Handle("/agent/start", handlers.StartAgentHandler{Agents: s.agents, DefaultIdentity: s.cfg.AgentIdentity})
	s.mux.Handle("/agent/stop", handlers.StopAgentHandler{Agents: s.agents})
	s.mux.Handle("/agent/say", handlers.SayAgentHandler{Agents: s.agents})
	s.mux.Handle("/agent/status", handlers.AgentStatusHandler{Agents: s.agents})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Timeout(s.cfg.HandlerTimeout, h)
	h = mw.BodyLimit(s.cfg.MaxBodyBytes, h)
	h = mw.Auth(s.cfg, h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining flips the readiness endpoint for load balancer drain.
func (s *Server) SetDraining(draining bool) {
	s.lc.SetDraining(draining)
}

// Shutdown stops all agent sessions, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.agents.Shutdown(ctx); err != nil {
		return err
	}
	s.records.Close()
	return nil
}
