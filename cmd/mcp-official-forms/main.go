package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/a3tai/mcp-official-forms/internal/config"
	"github.com/a3tai/mcp-official-forms/internal/docconfig"
	"github.com/a3tai/mcp-official-forms/internal/document"
	"github.com/a3tai/mcp-official-forms/internal/httpapi"
	"github.com/a3tai/mcp-official-forms/internal/mapping"
	"github.com/a3tai/mcp-official-forms/internal/mcp"
	"github.com/a3tai/mcp-official-forms/internal/metrics"
	"github.com/a3tai/mcp-official-forms/internal/overlay"
	"github.com/a3tai/mcp-official-forms/internal/security"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger configures logging based on the server mode. In stdio mode
// stdout carries the MCP protocol, so logs go to stderr and only in debug.
func newLogger(cfg *config.Config, stderr io.Writer) *log.Logger {
	if cfg.IsStdioMode() {
		if !cfg.IsDebug() {
			return log.New(io.Discard, "", 0)
		}
		return log.New(stderr, "", log.LstdFlags)
	}
	return log.New(stderr, "", log.LstdFlags|log.Lshortfile)
}

// app holds the wired components shared by both modes
type app struct {
	service   *document.Service
	templates *security.TemplateStore
	registry  *prometheus.Registry
}

func newApp(cfg *config.Config, logger *log.Logger) (*app, error) {
	tables, err := mapping.Load(cfg.MappingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load field mappings: %w", err)
	}

	templates, err := security.NewTemplateStore(cfg.TemplateDirectory, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := metrics.New(registry)
	service := document.NewService(
		docconfig.NewLoader(nil, docconfig.NewCache(), logger, docconfig.OnFallback(m.IncrementLegacyFallback)),
		overlay.NewResolver(tables),
		overlay.NewEngine(tables, cfg.FontSize),
		document.WithTemplates(templates),
		document.WithMetrics(m),
		document.WithLogger(logger),
	)

	return &app{service: service, templates: templates, registry: registry}, nil
}

// run serves until ctx is canceled, or in stdio mode until stdin closes
func run(ctx context.Context, cfg *config.Config, a *app, logger *log.Logger) error {
	if cfg.IsServerMode() {
		handler := httpapi.New(a.service, a.templates, a.registry, logger, cfg.MaxFileSize)
		return httpapi.Serve(ctx, cfg.Address(), handler.Router(), logger)
	}

	server, err := mcp.NewServer(cfg, a.service, a.templates, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	if cfg.IsDebug() {
		logger.Printf("Starting with configuration: %s", cfg.String())
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, a, logger); err != nil {
		logger.Printf("Server error: %v", err)
		stop()
		os.Exit(1)
	}
	logger.Println("Server stopped")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Official Forms\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
