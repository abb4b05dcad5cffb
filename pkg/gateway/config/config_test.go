package config

import (
	"strings"
	"testing"
	"time"
)

var gatewayEnvKeys = []string{
	"WARMLINE_ADDR",
	"WARMLINE_AUTH_MODE",
	"WARMLINE_API_KEYS",
	"WARMLINE_CORS_ORIGINS",
	"WARMLINE_TOKEN_TTL",
	"WARMLINE_STRICT_TRANSFER_ORDER",
	"WARMLINE_AGENT_IDENTITY",
	"WARMLINE_AGENT_HEARTBEAT",
	"WARMLINE_MAX_BODY_BYTES",
	"WARMLINE_READ_HEADER_TIMEOUT",
	"WARMLINE_READ_TIMEOUT",
	"WARMLINE_TOTAL_REQUEST_TIMEOUT",
	"WARMLINE_SHUTDOWN_GRACE_PERIOD",
	"ROOM_SERVICE_URL",
	"ROOM_SERVICE_API_KEY",
	"ROOM_SERVICE_API_SECRET",
	"GROQ_API_KEY",
	"GROQ_MODEL",
	"GEMINI_API_KEY",
	"GEMINI_MODEL",
	"TTS_API_KEY",
	"TTS_VOICE",
	"DATABASE_URL",
}

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range gatewayEnvKeys {
		t.Setenv(key, "")
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ROOM_SERVICE_URL", "https://rooms.example.com")
	t.Setenv("ROOM_SERVICE_API_KEY", "key")
	t.Setenv("ROOM_SERVICE_API_SECRET", "secret")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.AuthMode != AuthModeDisabled {
		t.Fatalf("AuthMode = %q, want %q", cfg.AuthMode, AuthModeDisabled)
	}
	if cfg.TokenTTL != 6*time.Hour {
		t.Fatalf("TokenTTL = %v, want 6h", cfg.TokenTTL)
	}
	if cfg.AgentIdentity != "ai-agent" {
		t.Fatalf("AgentIdentity = %q", cfg.AgentIdentity)
	}
	if cfg.AgentHeartbeat != time.Second {
		t.Fatalf("AgentHeartbeat = %v", cfg.AgentHeartbeat)
	}
	if cfg.StrictTransferOrder {
		t.Fatal("StrictTransferOrder = true, want false by default")
	}
	if cfg.ShutdownGracePeriod != 30*time.Second {
		t.Fatalf("ShutdownGracePeriod = %v", cfg.ShutdownGracePeriod)
	}
}

func TestLoadFromEnv_MissingRoomService(t *testing.T) {
	clearGatewayEnv(t)

	_, err := LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "ROOM_SERVICE_URL") {
		t.Fatalf("error = %v, want ROOM_SERVICE_URL complaint", err)
	}
}

func TestLoadFromEnv_RequiredAuthNeedsKeys(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("WARMLINE_AUTH_MODE", "required")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for required auth without api keys")
	}

	t.Setenv("WARMLINE_API_KEYS", "wl_sk_a, wl_sk_b")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if len(cfg.APIKeys) != 2 {
		t.Fatalf("APIKeys = %v", cfg.APIKeys)
	}
}

func TestLoadFromEnv_InvalidAuthMode(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("WARMLINE_AUTH_MODE", "sometimes")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for invalid auth mode")
	}
}

func TestDegradedDependencies(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	got := cfg.DegradedDependencies()
	if len(got) != 3 {
		t.Fatalf("degraded = %v", got)
	}

	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("TTS_API_KEY", "tts_test")
	t.Setenv("DATABASE_URL", "postgres://localhost/warmline")
	cfg, err = LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got := cfg.DegradedDependencies(); len(got) != 0 {
		t.Fatalf("degraded = %v, want none", got)
	}
}

func TestLoadFromEnv_StrictTransferOrder(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("WARMLINE_STRICT_TRANSFER_ORDER", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if !cfg.StrictTransferOrder {
		t.Fatal("StrictTransferOrder = false")
	}
}
