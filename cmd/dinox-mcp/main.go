package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"

	"github.com/tkzzzzzz6/dino-x/internal/applog"
	"github.com/tkzzzzzz6/dino-x/internal/config"
	"github.com/tkzzzzzz6/dino-x/internal/httpapi"
	"github.com/tkzzzzzz6/dino-x/internal/metrics"
	"github.com/tkzzzzzz6/dino-x/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	parser := argparse.NewParser("dinox-mcp", "MCP server that draws detection results onto images and keeps session analytics. "+
		"It communicates via MCP protocol over stdin/stdout. Flags override the "+
		config.EnvLogLevel+", "+config.EnvMaxHistory+", "+config.EnvMetricsAddr+" and "+config.EnvHideMasks+" environment variables.")
	version := parser.Flag("v", "version", &argparse.Options{Help: "Print version information"})
	logLevel := parser.String("l", "log-level", &argparse.Options{Help: "debug, info, warn, error, critical or off"})
	maxHistory := parser.Int("n", "max-history", &argparse.Options{Help: "Frames kept in the analytics history"})
	metricsAddr := parser.String("m", "metrics", &argparse.Options{Help: "Serve Prometheus metrics and the analytics API on this address (eg 127.0.0.1:9464)"})
	hideMasks := parser.Flag("", "hide-masks", &argparse.Options{Help: "Do not draw masks unless a call asks for them"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	if *version {
		fmt.Printf("dinox-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	cfg, err := config.FromEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(2)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *maxHistory != 0 {
		cfg.MaxHistory = *maxHistory
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *hideMasks {
		cfg.Overlay.ShowMask = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Logging goes to stderr (stdout is for MCP protocol)
	log := applog.New(os.Stderr, cfg.Level())
	defer log.Close()
	log.Infof("dinox-mcp %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
	}

	srv := server.New(server.Options{
		Config:  cfg,
		Log:     log,
		Metrics: m,
		Version: Version,
	})

	if cfg.MetricsAddr != "" {
		api := httpapi.New(log, m, srv.Analytics())
		go func() {
			if err := api.ListenAndServe(cfg.MetricsAddr); err != nil {
				log.Errorf("Metrics listener stopped: %v", err)
			}
		}()
	}

	if err := srv.Run(); err != nil {
		log.Criticalf("Server error: %v", err)
		os.Exit(1)
	}
}
