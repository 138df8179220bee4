package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the client configuration, loaded from the environment.
type Config struct {
	// Backend API
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"120s"`

	// Logging (the TUI owns the terminal, so logs go to a file)
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE" default:"stream-history.log"`

	// Narration. TTSTimeout bounds the remote synthesis request; the
	// local voice command (configured for the narration language) is what
	// we exec when the backend path fails.
	TTSTimeout     time.Duration `envconfig:"TTS_TIMEOUT" default:"30s"`
	AudioPlayerCmd string        `envconfig:"AUDIO_PLAYER_CMD" default:"aplay -q -"`
	LocalVoiceCmd  string        `envconfig:"LOCAL_VOICE_CMD" default:"espeak-ng -v fr"`
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load client configuration: %w", err)
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	return &cfg, nil
}
