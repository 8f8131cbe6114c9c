// wikiqa-web is the standalone browser assistant binary. It serves the
// embedded frontend plus the JSON API on one port.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wikiqa/internal/assistant"
	"wikiqa/internal/config"
	"wikiqa/internal/confluence"
	"wikiqa/internal/llm"
	"wikiqa/internal/logging"
	"wikiqa/internal/webui"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger := logging.NewComponentLogger("Web")

	wiki, err := confluence.New(confluence.Config{
		BaseURL:  cfg.ConfluenceURL,
		Email:    cfg.ConfluenceEmail,
		APIToken: cfg.ConfluenceAPIToken,
	}, confluence.WithLogger(logger))
	if err != nil {
		log.Fatalf("confluence client: %v", err)
	}

	completions, err := llm.NewOpenAIClient(cfg.Model, llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("completion client: %v", err)
	}

	factory := func() *assistant.Orchestrator {
		answerer := assistant.NewAnswerer(completions, cfg.ContextTokens, logger)
		return assistant.NewOrchestrator(wiki, answerer, logger)
	}

	serverCfg := webui.DefaultServerConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	serverCfg.Debug = cfg.Debug

	server, err := webui.NewServer(factory, serverCfg, logger)
	if err != nil {
		log.Fatalf("web server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	log.Printf("wikiqa web UI listening on http://%s:%d/ui", cfg.Host, cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("web server exited: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
