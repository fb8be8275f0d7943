package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "DEFAULT_LLM_PROVIDER")
	unsetEnvWithCleanup(t, "DEFAULT_LLM_MODEL")
	unsetEnvWithCleanup(t, "REMINDER_SCHEDULE")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default ServerPort 8080, got %q", cfg.ServerPort)
	}
	if cfg.DefaultProvider != "openai" || cfg.DefaultModel != "gpt-4o" {
		t.Fatalf("expected default model selection openai/gpt-4o, got %s/%s", cfg.DefaultProvider, cfg.DefaultModel)
	}
	if cfg.ReminderSchedule != "0 * * * *" {
		t.Fatalf("expected hourly default reminder schedule, got %q", cfg.ReminderSchedule)
	}
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "DATABASE_URL", "postgres://localhost/agents")
	setEnvWithCleanup(t, "RABBITMQ_URL", "amqp://localhost")
	setEnvWithCleanup(t, "REDIS_URL", "redis://localhost:6379")
	setEnvWithCleanup(t, "OPENAI_API_KEY", "sk-test")
	setEnvWithCleanup(t, "DEFAULT_LLM_PROVIDER", "anthropic")
	setEnvWithCleanup(t, "DEFAULT_LLM_MODEL", "claude-sonnet-4-20250514")
	setEnvWithCleanup(t, "CRON_SECRET", "sweep-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected ServerPort 9090, got %q", cfg.ServerPort)
	}
	if cfg.DatabaseURL != "postgres://localhost/agents" {
		t.Fatalf("unexpected DatabaseURL: %q", cfg.DatabaseURL)
	}
	if cfg.RabbitMQURL != "amqp://localhost" || cfg.RedisURL != "redis://localhost:6379" {
		t.Fatalf("broker URLs not read: %q / %q", cfg.RabbitMQURL, cfg.RedisURL)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("unexpected OpenAIAPIKey: %q", cfg.OpenAIAPIKey)
	}
	if cfg.DefaultProvider != "anthropic" || cfg.DefaultModel != "claude-sonnet-4-20250514" {
		t.Fatalf("model selection not overridden: %s/%s", cfg.DefaultProvider, cfg.DefaultModel)
	}
	if cfg.CronSecret != "sweep-secret" {
		t.Fatalf("unexpected CronSecret: %q", cfg.CronSecret)
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
		}
	})
}
