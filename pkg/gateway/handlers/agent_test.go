package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/warmline/warmline/pkg/agent"
)

// agentHarness backs the agent handlers with a real registry building
// simulated sessions.
func agentHarness(t *testing.T) *agent.Registry {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	r := agent.NewRegistry(func(roomID, identity string) *agent.Session {
		return agent.NewSession(agent.SessionConfig{
			RoomID:    roomID,
			Identity:  identity,
			Heartbeat: 10 * time.Millisecond,
			Logger:    logger,
		})
	}, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
	return r
}

func TestStartAgentHandler(t *testing.T) {
	agents := agentHarness(t)
	h := StartAgentHandler{Agents: agents}

	body := strings.NewReader(`{"room_id":"room-7","identity":"AI Assistant"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/start", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	var info agent.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.RoomID != "room-7" || info.Mode != agent.ModeSimulated {
		t.Fatalf("info=%+v", info)
	}
	if !agents.IsRunning("room-7") {
		t.Fatal("agent not registered")
	}
}

func TestStartAgentHandler_DefaultIdentity(t *testing.T) {
	agents := agentHarness(t)
	h := StartAgentHandler{Agents: agents, DefaultIdentity: "desk-assistant"}

	body := strings.NewReader(`{"room_id":"room-9"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/start", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	var info agent.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.Identity != "desk-assistant" {
		t.Fatalf("identity=%q, want configured default", info.Identity)
	}
}

func TestStartAgentHandler_MissingRoomID(t *testing.T) {
	h := StartAgentHandler{Agents: agentHarness(t)}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/start", strings.NewReader(`{}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestSayAgentHandler_NoActiveAgentIs404(t *testing.T) {
	h := SayAgentHandler{Agents: agentHarness(t)}

	body := strings.NewReader(`{"room_id":"room-7","text":"hello"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/say", body))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "no_active_agent_error") {
		t.Fatalf("body=%q", rr.Body.String())
	}
}

func TestAgentLifecycleOverHTTP(t *testing.T) {
	agents := agentHarness(t)

	start := StartAgentHandler{Agents: agents}
	say := SayAgentHandler{Agents: agents}
	stop := StopAgentHandler{Agents: agents}
	status := AgentStatusHandler{Agents: agents}

	rr := httptest.NewRecorder()
	start.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/start",
		strings.NewReader(`{"room_id":"room-7","identity":"AI Assistant"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("start status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	say.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/say",
		strings.NewReader(`{"room_id":"room-7","text":"hello"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("say status=%d body=%q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	stop.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/stop",
		strings.NewReader(`{"room_id":"room-7"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("stop status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	status.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/agent/status?room_id=room-7", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status status=%d", rr.Code)
	}
	var resp agentStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Running {
		t.Fatal("agent still reported running after stop")
	}
}

func TestAgentStatusHandler_RequiresRoomID(t *testing.T) {
	h := AgentStatusHandler{Agents: agentHarness(t)}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/agent/status", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}
