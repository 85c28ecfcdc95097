// Package main provides the searxng-mcp binary entry point.
// searxng-mcp is an MCP server exposing web search through a SearXNG
// instance and a hardened URL fetcher that renders pages as markdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/searxng-mcp/audit"
	"github.com/c360studio/searxng-mcp/config"
	"github.com/c360studio/searxng-mcp/metrics"
	"github.com/c360studio/searxng-mcp/server"
)

const (
	appName = "searxng-mcp"

	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// BuildTime is stamped at build time via -ldflags "-X main.BuildTime=...".
var BuildTime = "dev"

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		transport  string
		bindAddr   string
		tools      string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "MCP server for SearXNG search and secure web browsing",
		Long: `searxng-mcp exposes web access to MCP clients.

It provides:
- search: web search proxied to a SearXNG instance
- browse: a hardened URL fetcher that strips scripts and styles and
  renders pages as markdown, refusing requests to private networks

The server speaks MCP over stdio or streamable HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, transport, bindAddr, tools, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVarP(&transport, "transport", "t", transportStdio, "Transport (stdio, streamable-http)")
	cmd.Flags().StringVarP(&bindAddr, "bind", "b", "127.0.0.1:3344", "Bind address for streamable HTTP")
	cmd.Flags().StringVar(&tools, "tools", "", "Comma-separated tool allowlist (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, server.Version, BuildTime)
		},
	})

	// Init command
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default user config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(nil).EnsureUserConfig()
		},
	})

	return cmd
}

func run(configPath, transport, bindAddr, tools, logLevel string) error {
	// Configure logging. Stdout belongs to the stdio transport, so logs
	// always go to stderr.
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if transport != transportStdio && transport != transportStreamableHTTP {
		return fmt.Errorf("unknown transport %q", transport)
	}

	loader := config.NewLoader(logger)
	cfg, err := loader.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if tools != "" {
		cfg.Tools = splitTools(tools)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var auditPub *audit.Publisher
	if cfg.Audit.URL != "" {
		auditPub, err = audit.Connect(cfg.Audit.URL, cfg.Audit.Subject, logger)
		if err != nil {
			return fmt.Errorf("connect audit publisher: %w", err)
		}
		defer auditPub.Close()
		logger.Info("Audit publishing enabled",
			"url", cfg.Audit.URL,
			"subject", cfg.Audit.Subject)
	}

	srv, err := server.New(cfg, server.Options{
		Logger:  logger,
		Metrics: m,
		Audit:   auditPub,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	// Reload policy and client settings when an explicit config file
	// changes. Without one there is nothing to watch.
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, logger)
		if err != nil {
			return fmt.Errorf("create config watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start config watcher: %w", err)
		}
		defer watcher.Stop()

		go func() {
			for range watcher.Events() {
				reloaded, err := loader.Load(configPath)
				if err != nil {
					logger.Error("Config reload failed, keeping current config", "error", err)
					continue
				}
				if tools != "" {
					reloaded.Tools = splitTools(tools)
				}
				if err := srv.Reload(reloaded); err != nil {
					logger.Error("Config reload rejected, keeping current config", "error", err)
				}
			}
		}()
	}

	logger.Info("searxng-mcp ready",
		"version", server.Version,
		"transport", transport,
		"tools", cfg.Tools,
		"searxng", cfg.Searxng.BaseURL)

	if transport == transportStreamableHTTP {
		return srv.ServeHTTP(ctx, bindAddr)
	}
	return srv.Run(ctx)
}

func splitTools(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
