package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/foomo/pagemethods-mcp/cache"
	"github.com/foomo/pagemethods-mcp/config"
	"github.com/foomo/pagemethods-mcp/excerpt"
	"github.com/foomo/pagemethods-mcp/markup"
	"github.com/foomo/pagemethods-mcp/mcp"
	"github.com/foomo/pagemethods-mcp/related"
	"github.com/foomo/pagemethods-mcp/service"
)

func main() {
	// Define command line flags
	configPath := flag.String("config", "", "Path to the YAML config file")
	stdioMode := flag.Bool("stdio", true, "Run in stdio mode")
	httpAddr := flag.String("http", "", "HTTP server address (e.g., ':8080')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	var cacheBackend cache.Cache
	switch cfg.Cache.Backend {
	case "file":
		cacheBackend = cache.NewFile(cfg.Cache.Dir)
	default:
		cacheBackend = cache.NewMemory()
	}

	var serviceInstance service.Service
	if cfg.ContentServerURL != "" {
		serviceInstance = service.NewService(service.SiteSettings{
			BaseURL:          cfg.BaseURL,
			ContentServerURL: cfg.ContentServerURL,
		}, http.DefaultClient, logger)
	}

	formatter := &excerpt.Formatter{Renderer: markup.New()}

	var selector *related.Selector
	if serviceInstance != nil {
		selector = related.New(cacheBackend, serviceInstance.Site())
		selector.Expiry = cfg.RelatedExpiry()
		selector.Prefix = cfg.Cache.Prefix
	}

	// Create MCP server with the page method tools
	s := mcp.NewServer(formatter, selector, serviceInstance)

	addr := *httpAddr
	if addr == "" {
		addr = cfg.Listen
	}
	if addr != "" {
		// Start the HTTP server with the SSE surface
		logger.Info("starting MCP server", zap.String("addr", addr), zap.String("endpoint", cfg.Endpoint))
		handler := mcp.NewMcpHTTPSSEServer(logger, s, formatter, selector, serviceInstance, cfg.Endpoint, nil)
		if err := http.ListenAndServe(addr, handler); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}
	// Start the stdio server
	if *stdioMode {
		logger.Info("starting MCP server in stdio mode")
	}
	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if err := zapConfig.Level.UnmarshalText([]byte(level)); err != nil {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zapConfig.Build()
}
