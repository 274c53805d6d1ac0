package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "VASTRUST_API_BASE_URL")
	unsetEnvWithCleanup(t, "VASTRUST_REQUEST_TIMEOUT_SECONDS")
	unsetEnvWithCleanup(t, "VASTRUST_RESEND_COOLDOWN_SECONDS")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost/vastrust/public" {
		t.Fatalf("unexpected default base url: %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30 {
		t.Fatalf("expected default timeout 30, got %d", cfg.RequestTimeout)
	}
	if cfg.ResendCooldown != 60 {
		t.Fatalf("expected default cooldown 60, got %d", cfg.ResendCooldown)
	}
}

func TestLoadConfig_TrimsTrailingSlashFromBaseURL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "VASTRUST_API_BASE_URL", "https://api.vastrust.example/v1/")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.APIBaseURL != "https://api.vastrust.example/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
}

func TestLoadConfig_TrimsCredentialWhitespace(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "VASTRUST_API_USER", "  vastrust_api ")
	setEnvWithCleanup(t, "VASTRUST_API_PASSWORD", " secret\t")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.APIUser != "vastrust_api" {
		t.Fatalf("expected trimmed user, got %q", cfg.APIUser)
	}
	if cfg.APIPassword != "secret" {
		t.Fatalf("expected trimmed password, got %q", cfg.APIPassword)
	}
}

func TestLoadConfig_NonPositiveTimeoutFallsBackToDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "VASTRUST_REQUEST_TIMEOUT_SECONDS", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RequestTimeout != 30 {
		t.Fatalf("expected timeout coerced to 30, got %d", cfg.RequestTimeout)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
