// Package config loads application settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable of the server. Values come from the
// environment (optionally seeded from a .env file in main).
type Config struct {
	// --- Server ---
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret   string `envconfig:"APP_JWT_SECRET" required:"true"`

	// --- Image store ---
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MB

	// --- Verification judge ---
	JudgeAPIURL  string        `envconfig:"JUDGE_API_URL" default:"https://api.openai.com/v1/chat/completions"`
	JudgeAPIKey  string        `envconfig:"JUDGE_API_KEY"`
	JudgeModel   string        `envconfig:"JUDGE_MODEL" default:"gpt-4o-mini"`
	JudgeTimeout time.Duration `envconfig:"JUDGE_TIMEOUT" default:"30s"`

	// --- Point award policy ---
	// Policy knobs, not architecture: base award per verified cleanup,
	// bonus when the judge's confidence clears the threshold.
	BasePoints          int     `envconfig:"POINTS_BASE_AWARD" default:"100"`
	BonusPoints         int     `envconfig:"POINTS_CONFIDENCE_BONUS" default:"20"`
	ConfidenceThreshold float64 `envconfig:"POINTS_CONFIDENCE_THRESHOLD" default:"0.8"`

	// --- Reward pins ---
	PinMaxAttempts int `envconfig:"PIN_MAX_ATTEMPTS" default:"10"`

	// --- Verification worker ---
	WorkerSweepInterval time.Duration `envconfig:"WORKER_SWEEP_INTERVAL" default:"1m"`
	TaskMaxAttempts     int           `envconfig:"TASK_MAX_ATTEMPTS" default:"5"`

	// --- Push notifications (optional) ---
	FirebaseCredentialsFile   string `envconfig:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseCredentialsBase64 string `envconfig:"FIREBASE_CREDENTIALS_BASE64"`
}

func (c *Config) Validate() error {
	if c.BasePoints <= 0 {
		return fmt.Errorf("POINTS_BASE_AWARD must be > 0")
	}
	if c.BonusPoints < 0 {
		return fmt.Errorf("POINTS_CONFIDENCE_BONUS must be >= 0")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("POINTS_CONFIDENCE_THRESHOLD must be in [0,1]")
	}
	if c.PinMaxAttempts <= 0 {
		return fmt.Errorf("PIN_MAX_ATTEMPTS must be > 0")
	}
	if c.TaskMaxAttempts <= 0 {
		return fmt.Errorf("TASK_MAX_ATTEMPTS must be > 0")
	}
	return nil
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
