package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeOptional AuthMode = "optional"
	AuthModeDisabled AuthMode = "disabled"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Room service credentials. All three are required; the gateway
	// cannot mint access tokens or mutate membership without them.
	RoomServiceURL       string
	RoomServiceAPIKey    string
	RoomServiceAPISecret string
	TokenTTL             time.Duration

	// Summarization. Optional: with neither key set, transfer briefs
	// degrade to mock summaries.
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	// Speech synthesis. Optional: absent, agents run in simulated mode.
	TTSAPIKey string
	TTSVoice  string

	// Transfer record persistence. Optional: absent, records are kept
	// in memory for the process lifetime.
	DatabaseURL string

	// Require an initiated transfer before completing one for a room.
	StrictTransferOrder bool

	AgentIdentity  string
	AgentHeartbeat time.Duration

	MaxBodyBytes int64

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	HandlerTimeout      time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                 envOr("WARMLINE_ADDR", ":8080"),
		AuthMode:             AuthMode(envOr("WARMLINE_AUTH_MODE", string(AuthModeDisabled))),
		APIKeys:              make(map[string]struct{}),
		CORSAllowedOrigins:   make(map[string]struct{}),
		RoomServiceURL:       envOr("ROOM_SERVICE_URL", ""),
		RoomServiceAPIKey:    envOr("ROOM_SERVICE_API_KEY", ""),
		RoomServiceAPISecret: envOr("ROOM_SERVICE_API_SECRET", ""),
		TokenTTL:             envDurationOr("WARMLINE_TOKEN_TTL", 6*time.Hour),
		GroqAPIKey:           envOr("GROQ_API_KEY", ""),
		GroqModel:            envOr("GROQ_MODEL", ""),
		GeminiAPIKey:         envOr("GEMINI_API_KEY", ""),
		GeminiModel:          envOr("GEMINI_MODEL", ""),
		TTSAPIKey:            envOr("TTS_API_KEY", ""),
		TTSVoice:             envOr("TTS_VOICE", ""),
		DatabaseURL:          envOr("DATABASE_URL", ""),
		StrictTransferOrder:  envBoolOr("WARMLINE_STRICT_TRANSFER_ORDER", false),
		AgentIdentity:        envOr("WARMLINE_AGENT_IDENTITY", "ai-agent"),
		AgentHeartbeat:       envDurationOr("WARMLINE_AGENT_HEARTBEAT", time.Second),
		MaxBodyBytes:         envInt64Or("WARMLINE_MAX_BODY_BYTES", 1<<20), // 1 MiB
		ReadHeaderTimeout:    envDurationOr("WARMLINE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:          envDurationOr("WARMLINE_READ_TIMEOUT", 30*time.Second),
		HandlerTimeout:       envDurationOr("WARMLINE_TOTAL_REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownGracePeriod:  envDurationOr("WARMLINE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeOptional, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("WARMLINE_AUTH_MODE must be one of required|optional|disabled")
	}

	for _, key := range splitCSV(os.Getenv("WARMLINE_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}

	for _, origin := range splitCSV(os.Getenv("WARMLINE_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.RoomServiceURL == "" {
		return Config{}, fmt.Errorf("ROOM_SERVICE_URL must be set")
	}
	if cfg.RoomServiceAPIKey == "" || cfg.RoomServiceAPISecret == "" {
		return Config{}, fmt.Errorf("ROOM_SERVICE_API_KEY and ROOM_SERVICE_API_SECRET must be set")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("WARMLINE_TOKEN_TTL must be > 0")
	}
	if cfg.AgentHeartbeat <= 0 {
		return Config{}, fmt.Errorf("WARMLINE_AGENT_HEARTBEAT must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("WARMLINE_MAX_BODY_BYTES must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("WARMLINE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("WARMLINE_READ_TIMEOUT must be > 0")
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, fmt.Errorf("WARMLINE_TOTAL_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("WARMLINE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 {
		return Config{}, fmt.Errorf("WARMLINE_API_KEYS must be set when WARMLINE_AUTH_MODE=required")
	}

	return cfg, nil
}

// DegradedDependencies names optional collaborators that are not
// configured. The service still runs with documented fallbacks; the
// readiness endpoint reports these so operators can see the degradation.
func (c Config) DegradedDependencies() []string {
	var out []string
	if c.GroqAPIKey == "" && c.GeminiAPIKey == "" {
		out = append(out, "summarization")
	}
	if c.TTSAPIKey == "" {
		out = append(out, "speech_synthesis")
	}
	if c.DatabaseURL == "" {
		out = append(out, "transfer_store")
	}
	return out
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
