package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/tandem/internal/push"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Auth.TokenTTL != 168*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.Auth.TokenTTL)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.DailyAt != "08:00" {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Push.Enabled() {
		t.Error("push should be disabled without keys")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tandem.yaml")
	yaml := `server:
  port: 9000
scheduler:
  timezone: America/Denver
  daily_at: "07:30"
push:
  vapid_public_key: ` + pub + `
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TANDEM_SERVER_PORT", "9100")
	t.Setenv("TANDEM_PUSH_VAPID_PRIVATE_KEY", priv)
	t.Setenv("TANDEM_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Scheduler.Timezone != "America/Denver" || cfg.Scheduler.DailyAt != "07:30" {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Push.VAPIDPublicKey != pub || cfg.Push.VAPIDPrivateKey != priv {
		t.Errorf("Push = %+v", cfg.Push)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if cfg.Location().String() != "America/Denver" {
		t.Errorf("Location = %v", cfg.Location())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvKey(t *testing.T) {
	cases := map[string]string{
		"TANDEM_SERVER_PORT":           "server.port",
		"TANDEM_PUSH_VAPID_PUBLIC_KEY": "push.vapid_public_key",
		"TANDEM_AUTH_LOGIN_PER_MINUTE": "auth.login_per_minute",
		"TANDEM_DEBUG":                 "debug",
	}
	for in, want := range cases {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Fatalf("expected jwt_secret error, got %v", err)
	}

	cfg.Auth.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.Scheduler.Timezone = "Mars/Olympus"
	cfg.Scheduler.DailyAt = "25:00"
	cfg.Push.VAPIDPublicKey = "only-one"
	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"scheduler.timezone", "scheduler.daily_at", "vapid"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}

	cfg.Scheduler.Timezone = "UTC"
	cfg.Scheduler.DailyAt = "08:00"
	cfg.Push.VAPIDPrivateKey = "also-garbage"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "push: decode private key") {
		t.Errorf("expected key decode error, got %v", err)
	}
}
