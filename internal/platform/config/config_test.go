package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/api/v1" {
		t.Errorf("BasePath = %q", cfg.Server.BasePath)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("WriteTimeout = %v", cfg.Server.WriteTimeout)
	}
	if cfg.Server.IdleTimeout != 120*time.Second {
		t.Errorf("IdleTimeout = %v", cfg.Server.IdleTimeout)
	}
	if len(cfg.Pricing.DisabledStates) != 0 {
		t.Errorf("DisabledStates = %v", cfg.Pricing.DisabledStates)
	}
}

func TestLoadEnvMapOverrides(t *testing.T) {
	cfg, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"API_SERVER_PORT":             "9090",
			"API_SERVER_BASE_PATH":        "/api/v2",
			"API_SERVER_READ_TIMEOUT":     "5s",
			"API_PRICING_DISABLED_STATES": "nv, ca",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/api/v2" {
		t.Errorf("BasePath = %q", cfg.Server.BasePath)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if !reflect.DeepEqual(cfg.Pricing.DisabledStates, []string{"NV", "CA"}) {
		t.Errorf("DisabledStates = %v", cfg.Pricing.DisabledStates)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nexport API_SERVER_PORT=7070\nAPI_SERVER_BASE_PATH=\"/pricing/v1\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/pricing/v1" {
		t.Errorf("BasePath = %q", cfg.Server.BasePath)
	}
}

func TestLoadEnvMapBeatsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("API_SERVER_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(
		WithEnvFile(envPath),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"API_SERVER_PORT": "6060"}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	cfg, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"API_SERVER_READ_TIMEOUT": "not-a-duration"}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"API_SERVER_BASE_PATH": "api/v1"}),
	)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(validation.Fields(), []string{"Server.BasePath"}) {
		t.Fatalf("Fields() = %v", validation.Fields())
	}
}
