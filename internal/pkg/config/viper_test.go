package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
modules:
  recovery:
    code_ttl_minutes: 10
    sweep_interval_seconds: 60
    secret: from-file
    store: memory
instrument:
  log_mask_fields: password, otp ,,token
app:
  cors:
    origins:
      - http://localhost:5173
      - https://krishignan.in
  labels: "a:1,b:2"
  key: "c2VjcmV0"
`

func TestViperFromBytes_Getters(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	// Act & Assert
	if got := cfg.GetMinute("modules.recovery.code_ttl_minutes"); got != 10*time.Minute {
		t.Fatalf("expected 10m, got %v", got)
	}
	if got := cfg.GetSecond("modules.recovery.sweep_interval_seconds"); got != time.Minute {
		t.Fatalf("expected 60s, got %v", got)
	}
	if got := cfg.GetArray("instrument.log_mask_fields"); len(got) != 3 || got[1] != "otp" {
		t.Fatalf("unexpected comma array %v", got)
	}
	if got := cfg.GetArray("app.cors.origins"); len(got) != 2 || got[1] != "https://krishignan.in" {
		t.Fatalf("unexpected yaml array %v", got)
	}
	if got := cfg.GetArray("app.missing"); len(got) != 0 {
		t.Fatalf("expected empty array, got %v", got)
	}
	if got := cfg.GetMap("app.labels"); got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("unexpected map %v", got)
	}
	if got := string(cfg.GetBinary("app.key")); got != "secret" {
		t.Fatalf("unexpected binary %q", got)
	}
	if !cfg.IsSet("modules.recovery.store") || cfg.IsSet("modules.recovery.nope") {
		t.Fatalf("unexpected IsSet result")
	}
}

func TestViperFromBytes_EnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("MODULES_RECOVERY_SECRET", "from-env")
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	// Act
	got := cfg.GetString("modules.recovery.secret")

	// Assert
	if got != "from-env" {
		t.Fatalf("expected env override, got %q", got)
	}
}

func TestViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); !errors.Is(err, ErrConfigType) {
		t.Fatalf("expected ErrConfigType, got %v", err)
	}
}

func TestNewViper_ReadsFile(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Act
	cfg, err := NewViper(file)

	// Assert
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got := cfg.GetString("modules.recovery.store"); got != "memory" {
		t.Fatalf("expected memory, got %q", got)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	if err := os.WriteFile(file, []byte("KRISHIGNAN_DOTENV_A=file\nKRISHIGNAN_DOTENV_B=file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("KRISHIGNAN_DOTENV_A", "process")
	t.Cleanup(func() { os.Unsetenv("KRISHIGNAN_DOTENV_B") })

	// Act
	LoadDotEnv(file, filepath.Join(dir, "missing.env"))

	// Assert
	if got := os.Getenv("KRISHIGNAN_DOTENV_A"); got != "process" {
		t.Fatalf("expected process value kept, got %q", got)
	}
	if got := os.Getenv("KRISHIGNAN_DOTENV_B"); got != "file" {
		t.Fatalf("expected file value loaded, got %q", got)
	}
}
