// Package config loads server configuration from an optional TOML file,
// with environment-variable overrides for the settings that differ between
// deployments. Every field has a working default, so a bare `estate-api`
// starts an instance on the file backend.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML files can say interval = "1h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds the full server configuration.
type Config struct {
	Port       int    `toml:"port"`
	Backend    string `toml:"backend"` // json | sqlite | memory
	DataDir    string `toml:"data_dir"`
	UploadsDir string `toml:"uploads_dir"`
	JWTSecret  string `toml:"jwt_secret"`

	Admin  AdminConfig  `toml:"admin"`
	Backup BackupConfig `toml:"backup"`
}

// AdminConfig is the single seeded credential. The password here is only
// used on first startup; what lands on disk is a bcrypt hash.
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// BackupConfig controls the file-backend snapshot lifecycle. Ignored by
// the other backends.
type BackupConfig struct {
	Dir      string   `toml:"dir"`
	Keep     int      `toml:"keep"`
	Interval Duration `toml:"interval"`
	OnWrite  bool     `toml:"on_write"` // snapshot after every mutation
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:       3001,
		Backend:    "json",
		DataDir:    "data",
		UploadsDir: "uploads",
		JWTSecret:  "change-me-in-production",
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		Backup: BackupConfig{
			Dir:      "backup",
			Keep:     5,
			Interval: Duration{time.Hour},
		},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the file
// does not exist) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over file/default values.
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q", v)
		}
		c.Port = port
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("ESTATE_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("ESTATE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	return nil
}
