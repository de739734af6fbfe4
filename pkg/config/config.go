// Package config provides configuration for the Cheeko services.
// Built once from the environment at process start and passed by
// reference to every layer; no package-level credential state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultServerPort is the standard port for the token server
	DefaultServerPort = 8000

	// DefaultMetadataTimeout bounds the wait for user metadata
	DefaultMetadataTimeout = 8 * time.Second

	// DefaultRealtimeModel is the Gemini Live model driving Cheeko's voice
	DefaultRealtimeModel = "models/gemini-2.5-flash-native-audio-preview-09-2025"

	// DefaultVoice is Cheeko's prebuilt voice
	DefaultVoice = "Fenrir"

	// DefaultAgentName is the dispatch name registered for the worker
	DefaultAgentName = "cheeko"
)

// Config holds all configurable parameters for both binaries.
type Config struct {
	// LiveKit connection credentials
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string

	// Gemini Live
	GeminiAPIKey  string
	RealtimeModel string
	Voice         string

	// Spy tool credentials
	GitHubToken     string // static personal access token
	GoogleTokenJSON string // pre-obtained OAuth token for headless deploys
	CredentialsPath string // OAuth client secrets (local dev only)
	TokenPath       string // persisted refreshable credential

	// Token server
	Host      string
	Port      int
	StaticDir string
	AgentName string

	// Agent worker
	RoomName        string
	MetadataTimeout time.Duration
}

// Load reads .env.local/.env and the environment into a Config.
// Missing optional values fall back to defaults; required credentials
// are validated by the callers that need them.
func Load() *Config {
	// .env.local wins over .env, matching the frontend tooling
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	return &Config{
		LiveKitURL:       os.Getenv("LIVEKIT_URL"),
		LiveKitAPIKey:    os.Getenv("LIVEKIT_API_KEY"),
		LiveKitAPISecret: os.Getenv("LIVEKIT_API_SECRET"),

		GeminiAPIKey:  firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY"),
		RealtimeModel: envOr("CHEEKO_REALTIME_MODEL", DefaultRealtimeModel),
		Voice:         envOr("CHEEKO_VOICE", DefaultVoice),

		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		GoogleTokenJSON: os.Getenv("GOOGLE_TOKEN_JSON"),
		CredentialsPath: envOr("GOOGLE_CREDENTIALS_PATH", "credentials.json"),
		TokenPath:       envOr("GOOGLE_TOKEN_PATH", "token.json"),

		Host:      envOr("CHEEKO_HOST", "0.0.0.0"),
		Port:      envInt("PORT", DefaultServerPort),
		StaticDir: envOr("CHEEKO_STATIC_DIR", defaultStaticDir()),
		AgentName: envOr("CHEEKO_AGENT_NAME", DefaultAgentName),

		RoomName:        os.Getenv("CHEEKO_ROOM"),
		MetadataTimeout: envDuration("CHEEKO_METADATA_TIMEOUT", DefaultMetadataTimeout),
	}
}

// HasLiveKit reports whether the LiveKit connection is fully configured.
func (c *Config) HasLiveKit() bool {
	return c.LiveKitURL != "" && c.LiveKitAPIKey != "" && c.LiveKitAPISecret != ""
}

// Addr returns the token server bind address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultStaticDir() string {
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return filepath.Join(cwd, "frontend")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return fallback
}
