package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	App     AppConfig
	Server  ServerConfig
	LLM     LLMConfig
	Game    GameConfig
	JWT     JWTConfig
	Log     LogConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Name        string
	Environment string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LLMConfig configures the chat-completions backend that narrates the
// cases. The endpoint speaks the OpenAI-compatible wire format.
type LLMConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// GameConfig carries the tunable simulation constants. Defaults match
// the tuned gameplay values; every knob can be overridden per deploy.
type GameConfig struct {
	// TickInterval is one in-game second of wall time.
	TickInterval time.Duration
	// VitalsEvery is the number of ticks between physiology updates.
	VitalsEvery int
	// AutoResolveAfter forces a terminal outcome on long-idle cases.
	AutoResolveAfter time.Duration
	// CostPerAction is charged for every order and chat message.
	CostPerAction float64

	CriticalAlertChance      float64
	HarmfulCommentChance     float64
	UnnecessaryCommentChance float64
	PraiseChance             float64
	CommentDelay             time.Duration

	// FeedBuffer bounds the presentation feed; events past it are
	// dropped, not blocked on.
	FeedBuffer int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	JaegerURL   string
	SampleRate  float64
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "codeblue"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			Endpoint:    getEnv("LLM_ENDPOINT", "https://api.ppq.ai/chat/completions"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Game: GameConfig{
			TickInterval:             getEnvDuration("GAME_TICK_INTERVAL", time.Second),
			VitalsEvery:              getEnvInt("GAME_VITALS_EVERY", 10),
			AutoResolveAfter:         getEnvDuration("GAME_AUTO_RESOLVE_AFTER", 7*time.Minute),
			CostPerAction:            getEnvFloat("GAME_COST_PER_ACTION", 0.01),
			CriticalAlertChance:      getEnvFloat("GAME_CRITICAL_ALERT_CHANCE", 0.7),
			HarmfulCommentChance:     getEnvFloat("GAME_HARMFUL_COMMENT_CHANCE", 0.8),
			UnnecessaryCommentChance: getEnvFloat("GAME_UNNECESSARY_COMMENT_CHANCE", 0.4),
			PraiseChance:             getEnvFloat("GAME_PRAISE_CHANCE", 0.3),
			CommentDelay:             getEnvDuration("GAME_COMMENT_DELAY", 3*time.Second),
			FeedBuffer:               getEnvInt("GAME_FEED_BUFFER", 1024),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			Issuer:   getEnv("JWT_ISSUER", "codeblue"),
			TokenTTL: getEnvDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT_PATH", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "codeblue"),
			JaegerURL:   getEnv("TRACING_JAEGER_URL", "localhost:4318"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	for name, p := range map[string]float64{
		"GAME_CRITICAL_ALERT_CHANCE":      c.Game.CriticalAlertChance,
		"GAME_HARMFUL_COMMENT_CHANCE":     c.Game.HarmfulCommentChance,
		"GAME_UNNECESSARY_COMMENT_CHANCE": c.Game.UnnecessaryCommentChance,
		"GAME_PRAISE_CHANCE":              c.Game.PraiseChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", name, p)
		}
	}
	if c.Game.VitalsEvery < 1 {
		return fmt.Errorf("GAME_VITALS_EVERY must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
