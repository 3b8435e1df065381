package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"claude-session-hub/config"
	_ "claude-session-hub/docs" // Swagger docs
	"claude-session-hub/internal/handlers"
	"claude-session-hub/internal/httpserver"
	"claude-session-hub/internal/session"
	"claude-session-hub/internal/webhook"
	"claude-session-hub/pkg/docker"
	pkgGitHub "claude-session-hub/pkg/github"
	"claude-session-hub/pkg/log"
)

// @title       Claude Session Hub API
// @description Webhook dispatch and sandboxed AI session orchestration over Docker containers.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting Claude Session Hub...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)
	logger.Infof(ctx, "Session image: %s", cfg.Executor.Image)

	// 3. Session execution
	dockerClient := docker.NewClient(cfg.Executor.DockerBin, nil)

	sessionMgr := session.New(dockerClient, session.Config{
		Image:           cfg.Executor.Image,
		AuthDir:         cfg.Executor.AuthDir,
		ContainerPrefix: cfg.Executor.ContainerPrefix,
		Credentials:     sessionCredentials(cfg),
		Timeout:         cfg.Session.Timeout,
	}, logger)

	// 4. Webhook intake
	registry := webhook.NewRegistry(logger)
	processor := webhook.NewProcessor(registry, logger)

	// GitHub API client (optional, handlers that need it are skipped without a token)
	var ghClient *pkgGitHub.Client
	if cfg.GitHub.Token != "" {
		ghClient = pkgGitHub.NewClient(ctx, cfg.GitHub.Token)
		if cfg.GitHub.APIURL != "" {
			ghClient.SetAPIURL(cfg.GitHub.APIURL)
		}
	} else {
		logger.Warn(ctx, "GITHUB_TOKEN not set, GitHub issue handlers disabled")
	}

	handlers.Register(registry, sessionMgr, ghClient, logger)

	webhookHandler := webhook.NewHandler(registry, processor, cfg.Webhook, sessionMgr, logger)
	sessionHandler := session.NewHTTPHandler(sessionMgr, logger)

	// 5. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:         logger,
		Port:           cfg.HTTPServer.Port,
		Mode:           cfg.HTTPServer.Mode,
		Environment:    cfg.Environment.Name,
		WebhookHandler: webhookHandler,
		SessionHandler: sessionHandler,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	// 6. Run
	if err := httpServer.Run(ctx); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}

	logger.Info(ctx, "Server stopped gracefully")
}

// sessionCredentials collects the credential env vars every session
// container receives alongside the mounted auth directory.
func sessionCredentials(cfg *config.Config) map[string]string {
	creds := map[string]string{}
	if cfg.GitHub.Token != "" {
		creds["GITHUB_TOKEN"] = cfg.GitHub.Token
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		creds["ANTHROPIC_API_KEY"] = key
	}
	return creds
}
