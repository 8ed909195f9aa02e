package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/mcpserver"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// This MCP server speaks stdio to the host and relays tool calls to the
// bot's operator API.

const defaultAPIURL = "http://127.0.0.1:9877"

func main() {
	_ = godotenv.Load()

	// stdout carries the protocol, logs go to stderr
	if err := log.Init(envOr("LOG_LEVEL", "warn"), "json"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
	}

	apiURL := envOr("SCAMGUARD_API_URL", defaultAPIURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.NewServer(mcpserver.NewClient(apiURL), "v1.0.0")
	log.Infow("starting MCP server", "api_url", apiURL)
	if err := srv.Run(ctx); err != nil {
		log.Error("MCP server error", err)
		log.Sync()
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
