package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Webhook intake
	Webhook WebhookConfig
	GitHub  GitHubConfig

	// Session execution
	Executor ExecutorConfig
	Session  SessionConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

// WebhookConfig holds the webhook boundary settings.
type WebhookConfig struct {
	GitHubSecret        string   // HMAC secret for the GitHub provider
	OrchestrationSecret string   // Bearer token for the orchestration provider
	AllowedIPs          []string // IP whitelist (optional)
	RateLimitPerMin     int      // Max requests per minute per source
	SkipVerification    bool     // Dev-only escape hatch, refused in production
}

// GitHubConfig holds credentials for the outbound GitHub API client.
type GitHubConfig struct {
	Token  string
	APIURL string
}

// ExecutorConfig describes how session containers are provisioned.
type ExecutorConfig struct {
	Image           string // container image for agent sessions
	AuthDir         string // host directory mounted read-only for credentials
	ContainerPrefix string // display-name prefix for session containers
	DockerBin       string // docker binary, overridable for tests
}

// SessionConfig holds scheduler tunables.
type SessionConfig struct {
	Timeout time.Duration // wall-clock limit per session; 0 disables
}

// Load loads configuration using Viper.
// Config file name: config.yaml, searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Webhooks
	cfg.Webhook.GitHubSecret = expandEnvVar(viper.GetString("webhook.github_secret"))
	if s := viper.GetString("github_webhook_secret"); s != "" {
		cfg.Webhook.GitHubSecret = s
	}
	cfg.Webhook.OrchestrationSecret = expandEnvVar(viper.GetString("webhook.orchestration_secret"))
	if s := viper.GetString("claude_webhook_secret"); s != "" {
		cfg.Webhook.OrchestrationSecret = s
	}
	cfg.Webhook.RateLimitPerMin = viper.GetInt("webhook.rate_limit_per_min")
	cfg.Webhook.SkipVerification = viper.GetBool("webhook.skip_verification")

	// Split allowed IPs since viper might not parse array seamlessly from env
	var ips []string
	if rawIps := viper.GetString("webhook.allowed_ips"); rawIps != "" {
		for _, ip := range strings.Split(rawIps, ",") {
			ip = strings.TrimSpace(ip)
			if ip != "" {
				ips = append(ips, ip)
			}
		}
	}
	cfg.Webhook.AllowedIPs = ips

	// GitHub API client
	cfg.GitHub.Token = expandEnvVar(viper.GetString("github.token"))
	if tok := viper.GetString("github_token"); tok != "" {
		cfg.GitHub.Token = tok
	}
	cfg.GitHub.APIURL = viper.GetString("github.api_url")

	// Executor
	cfg.Executor.Image = viper.GetString("executor.image")
	cfg.Executor.AuthDir = viper.GetString("executor.auth_dir")
	cfg.Executor.ContainerPrefix = viper.GetString("executor.container_prefix")
	cfg.Executor.DockerBin = viper.GetString("executor.docker_bin")

	// Session
	cfg.Session.Timeout = viper.GetDuration("session.timeout")

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)
	viper.SetDefault("webhook.rate_limit_per_min", 60)
	viper.SetDefault("webhook.skip_verification", false)
	viper.SetDefault("github.api_url", "https://api.github.com")
	viper.SetDefault("executor.image", "claude-session-hub/agent:latest")
	viper.SetDefault("executor.container_prefix", "claude-session")
	viper.SetDefault("executor.docker_bin", "docker")
	viper.SetDefault("session.timeout", "30m")
}

// validate rejects configurations that would silently disable authentication
// in production. Verification policy belongs to the deployment, not the
// request pipeline.
func validate(cfg *Config) error {
	if cfg.Environment.Name != "production" {
		return nil
	}
	if cfg.Webhook.SkipVerification {
		return fmt.Errorf("webhook.skip_verification must not be set in production")
	}
	if cfg.Webhook.GitHubSecret == "" {
		return fmt.Errorf("webhook.github_secret is required in production")
	}
	if cfg.Webhook.OrchestrationSecret == "" {
		return fmt.Errorf("webhook.orchestration_secret is required in production")
	}
	return nil
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}
func expandEnvVar(value string) string {
	if value == "" {
		return value
	}

	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envValue := viper.GetString(envVar); envValue != "" {
			return envValue
		}
		if envValue := viper.GetString(strings.ToLower(envVar)); envValue != "" {
			return envValue
		}
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
	}

	return value
}
