/**
 * @description
 * This file handles configuration management for the agent service. It uses
 * the 'viper' library to load configuration from environment variables,
 * providing a centralized and consistent way to manage application settings.
 */
package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	OpenAIAPIKey    string `mapstructure:"OPENAI_API_KEY"`
	AnthropicAPIKey string `mapstructure:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `mapstructure:"GEMINI_API_KEY"`

	DefaultProvider string `mapstructure:"DEFAULT_LLM_PROVIDER"`
	DefaultModel    string `mapstructure:"DEFAULT_LLM_MODEL"`

	AuthPassword     string `mapstructure:"AUTH_PASSWORD"`
	AuthPasswordHash string `mapstructure:"AUTH_PASSWORD_HASH"`
	AuthSecret       string `mapstructure:"AUTH_SECRET"`
	CronSecret       string `mapstructure:"CRON_SECRET"`

	ReminderSchedule string `mapstructure:"REMINDER_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DEFAULT_LLM_PROVIDER", "openai")
	viper.SetDefault("DEFAULT_LLM_MODEL", "gpt-4o")
	// Hourly sweep; each account's own cadence decides whether it fires.
	viper.SetDefault("REMINDER_SCHEDULE", "0 * * * *")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("OPENAI_API_KEY")
	_ = viper.BindEnv("ANTHROPIC_API_KEY")
	_ = viper.BindEnv("GEMINI_API_KEY")
	_ = viper.BindEnv("DEFAULT_LLM_PROVIDER")
	_ = viper.BindEnv("DEFAULT_LLM_MODEL")
	_ = viper.BindEnv("AUTH_PASSWORD")
	_ = viper.BindEnv("AUTH_PASSWORD_HASH")
	_ = viper.BindEnv("AUTH_SECRET")
	_ = viper.BindEnv("CRON_SECRET")
	_ = viper.BindEnv("REMINDER_SCHEDULE")

	err = viper.Unmarshal(&config)
	return
}
