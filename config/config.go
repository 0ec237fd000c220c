// Package config loads the formflow server configuration from a YAML file
// with environment-variable overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Google GoogleConfig `mapstructure:"google"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// GoogleConfig covers both auth paths: a service-account key file for the
// library/agent surface and an OAuth client for the web login flow.
type GoogleConfig struct {
	ClientID           string `mapstructure:"client_id"`
	ClientSecret       string `mapstructure:"client_secret"`
	RedirectURI        string `mapstructure:"redirect_uri"`
	ServiceAccountFile string `mapstructure:"service_account_file"`
}

type AgentConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("FORMFLOW")
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	viper.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	viper.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	viper.BindEnv("google.redirect_uri", "GOOGLE_REDIRECT_URI")
	viper.BindEnv("google.service_account_file", "GOOGLE_SERVICE_ACCOUNT_FILE")

	viper.BindEnv("agent.base_url", "AGENT_BASE_URL")
	viper.BindEnv("agent.api_key", "AGENT_API_KEY")
	viper.BindEnv("agent.model", "AGENT_MODEL")

	viper.BindEnv("log.file", "LOG_FILE")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("log.file", "logs/formflow.log")

	if err := viper.ReadInConfig(); err != nil {
		// Env-only configuration is fine; a broken file is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
