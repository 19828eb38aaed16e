package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Faturação"`
		DataDir  string `envconfig:"DATA_DIR" default:""`
		DataFile string `envconfig:"DATA_FILE" default:"faturacao.db"`
	}

	Auth struct {
		// PBKDF2 iteration count. Lowered only in tests.
		HashIterations    int           `envconfig:"HASH_ITERATIONS" default:"120000"`
		SessionSecret     string        `envconfig:"SESSION_SECRET" default:"faturacao-local-session"`
		SessionDuration   time.Duration `envconfig:"SESSION_DURATION" default:"8h"`
		InactivityTimeout time.Duration `envconfig:"INACTIVITY_TIMEOUT" default:"30m"`
		MaxLoginAttempts  int           `envconfig:"MAX_LOGIN_ATTEMPTS" default:"5"`
		LockoutDuration   time.Duration `envconfig:"LOCKOUT_DURATION" default:"15m"`
	}
}

// DataPath resolves the bolt file location, defaulting to a per-user
// config directory when DATA_DIR is not set.
func (c *Config) DataPath() (string, error) {
	dir := c.App.DataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolving user config dir: %w", err)
		}

		dir = filepath.Join(base, "faturacao")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}

	return filepath.Join(dir, c.App.DataFile), nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
