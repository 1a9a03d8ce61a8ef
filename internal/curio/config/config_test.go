package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/museumops/curio/internal/curio/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CURIO_CONFIG", "CURIO_DATABASE_PATH", "CURIO_HTTP_ADDR", "CURIO_LOG_LEVEL",
		"MATRIX_HOMESERVER", "MATRIX_USER_ID", "MATRIX_ACCESS_TOKEN", "MATRIX_ROOMS",
		"REPORT_SERVICE_URL", "CURIO_RATE_LIMIT", "CURIO_IDLE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Dialogue.IdleTimeout != 10*time.Minute || c.Dialogue.RateLimit != 10 {
		t.Errorf("dialogue defaults: %+v", c.Dialogue)
	}
	if c.HTTPAddr != ":8080" || c.Log.Level != "info" {
		t.Errorf("defaults: %+v", c)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "curio.yaml")
	yaml := `
database_path: /var/lib/curio/curio.db
report_service:
  base_url: http://reports.internal
  timeout: 90s
matrix:
  homeserver: https://matrix.museum.org
  user_id: "@curio:museum.org"
  access_token: secret
  rooms: ["!desk:museum.org"]
dialogue:
  rate_limit: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CURIO_RATE_LIMIT", "5")
	t.Setenv("MATRIX_ROOMS", "!a:museum.org, !b:museum.org")

	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DatabasePath != "/var/lib/curio/curio.db" || c.ReportService.Timeout != 90*time.Second {
		t.Errorf("file values: %+v", c)
	}
	if c.Dialogue.RateLimit != 5 {
		t.Errorf("env should override file: got %d", c.Dialogue.RateLimit)
	}
	if len(c.Matrix.Rooms) != 2 || c.Matrix.Rooms[1] != "!b:museum.org" {
		t.Errorf("rooms: %v", c.Matrix.Rooms)
	}
	if c.Dialogue.Retention != time.Hour {
		t.Errorf("unset file keys keep defaults: %v", c.Dialogue.Retention)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if !c.MatrixEnabled() {
		t.Error("matrix should be enabled")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dialogue: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"http only", func(c *config.Config) {}, false},
		{"no report service", func(c *config.Config) { c.ReportService.BaseURL = "" }, true},
		{"no transport", func(c *config.Config) { c.HTTPAddr = "" }, true},
		{"matrix without token", func(c *config.Config) {
			c.Matrix.Homeserver = "https://matrix.museum.org"
			c.Matrix.UserID = "@curio:museum.org"
			c.Matrix.Rooms = []string{"!desk:museum.org"}
		}, true},
		{"matrix without rooms", func(c *config.Config) {
			c.Matrix.Homeserver = "https://matrix.museum.org"
			c.Matrix.UserID = "@curio:museum.org"
			c.Matrix.AccessToken = "tok"
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			c.ReportService.BaseURL = "http://reports.internal"
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
