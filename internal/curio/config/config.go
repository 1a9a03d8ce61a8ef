// Package config loads Curio's runtime configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/museumops/curio/common/environment"
)

// DefaultFile is read when no explicit path or CURIO_CONFIG is given and the
// file exists in the working directory.
const DefaultFile = "curio.yaml"

// Config holds application configuration
type Config struct {
	DatabasePath string `yaml:"database_path"`
	// HTTPAddr is the listen address of the conversation API. Empty disables it.
	HTTPAddr      string              `yaml:"http_addr"`
	Log           LogConfig           `yaml:"log"`
	Matrix        MatrixConfig        `yaml:"matrix"`
	ReportService ReportServiceConfig `yaml:"report_service"`
	Assistant     AssistantConfig     `yaml:"assistant"`
	Dialogue      DialogueConfig      `yaml:"dialogue"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MatrixConfig enables the Matrix transport when Homeserver is set.
type MatrixConfig struct {
	Homeserver  string   `yaml:"homeserver"`
	UserID      string   `yaml:"user_id"`
	AccessToken string   `yaml:"access_token"`
	Rooms       []string `yaml:"rooms"`
	// AuditRoom receives one notice per finished report. Optional.
	AuditRoom string `yaml:"audit_room"`
}

type ReportServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// AssistantConfig configures the free-text fallback. Without an API key the
// canned fallback reply is used.
type AssistantConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type DialogueConfig struct {
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	Retention    time.Duration `yaml:"retention"`
	RateLimit    int           `yaml:"rate_limit"`
	HistoryLimit int           `yaml:"history_limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatabasePath: "./curio.db",
		HTTPAddr:     ":8080",
		Log:          LogConfig{Level: "info", Format: "text"},
		ReportService: ReportServiceConfig{
			Timeout: 2 * time.Minute,
		},
		Assistant: AssistantConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Dialogue: DialogueConfig{
			IdleTimeout:  10 * time.Minute,
			Retention:    time.Hour,
			RateLimit:    10,
			HistoryLimit: 200,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. An empty path falls back to CURIO_CONFIG and then to
// DefaultFile when present. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		path = environment.StringOr("CURIO_CONFIG", "")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.DatabasePath = environment.StringOr("CURIO_DATABASE_PATH", c.DatabasePath)
	c.HTTPAddr = environment.StringOr("CURIO_HTTP_ADDR", c.HTTPAddr)
	c.Log.Level = environment.StringOr("CURIO_LOG_LEVEL", c.Log.Level)
	c.Log.Format = environment.StringOr("CURIO_LOG_FORMAT", c.Log.Format)

	c.Matrix.Homeserver = environment.StringOr("MATRIX_HOMESERVER", c.Matrix.Homeserver)
	c.Matrix.UserID = environment.StringOr("MATRIX_USER_ID", c.Matrix.UserID)
	c.Matrix.AccessToken = environment.StringOr("MATRIX_ACCESS_TOKEN", c.Matrix.AccessToken)
	c.Matrix.Rooms = environment.StringSliceOr("MATRIX_ROOMS", c.Matrix.Rooms)
	c.Matrix.AuditRoom = environment.StringOr("MATRIX_AUDIT_ROOM", c.Matrix.AuditRoom)

	c.ReportService.BaseURL = environment.StringOr("REPORT_SERVICE_URL", c.ReportService.BaseURL)
	c.ReportService.Token = environment.StringOr("REPORT_SERVICE_TOKEN", c.ReportService.Token)
	c.ReportService.Timeout = environment.DurationOr("CURIO_GENERATION_TIMEOUT", c.ReportService.Timeout)

	c.Assistant.APIKey = environment.StringOr("CURIO_ASSISTANT_API_KEY", c.Assistant.APIKey)
	c.Assistant.BaseURL = environment.StringOr("CURIO_ASSISTANT_BASE_URL", c.Assistant.BaseURL)
	c.Assistant.Model = environment.StringOr("CURIO_ASSISTANT_MODEL", c.Assistant.Model)

	c.Dialogue.IdleTimeout = environment.DurationOr("CURIO_IDLE_TIMEOUT", c.Dialogue.IdleTimeout)
	c.Dialogue.RateLimit = environment.IntOr("CURIO_RATE_LIMIT", c.Dialogue.RateLimit)
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.ReportService.BaseURL == "" {
		return errors.New("REPORT_SERVICE_URL is required")
	}
	if c.Matrix.Homeserver != "" {
		switch {
		case c.Matrix.UserID == "":
			return errors.New("MATRIX_USER_ID is required when MATRIX_HOMESERVER is set")
		case c.Matrix.AccessToken == "":
			return errors.New("MATRIX_ACCESS_TOKEN is required when MATRIX_HOMESERVER is set")
		case len(c.Matrix.Rooms) == 0:
			return errors.New("MATRIX_ROOMS is required when MATRIX_HOMESERVER is set")
		}
	}
	if c.Matrix.Homeserver == "" && c.HTTPAddr == "" {
		return errors.New("no transport configured: set MATRIX_HOMESERVER or CURIO_HTTP_ADDR")
	}
	if c.DatabasePath == "" {
		return errors.New("CURIO_DATABASE_PATH must not be empty")
	}
	return nil
}

// MatrixEnabled reports whether the Matrix transport is configured.
func (c *Config) MatrixEnabled() bool {
	return c.Matrix.Homeserver != ""
}
