// ABOUTME: Entry point for the catalogd admin utility
// ABOUTME: Validates, lists, and interactively edits the conversational catalog

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/peakform/catalogd/internal/assets"
	"github.com/peakform/catalogd/internal/audit"
	"github.com/peakform/catalogd/internal/catalog"
	"github.com/peakform/catalogd/internal/config"
	"github.com/peakform/catalogd/internal/metrics"
	"github.com/peakform/catalogd/internal/taxonomy"
)

// Version is set by goreleaser at build time.
var version = "dev"

func usage() {
	fmt.Println("Usage: catalogd <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check     Load both stores, reconcile, and report")
	fmt.Println("  list      Print the catalog with asset binding status")
	fmt.Println("  audit     Show recent catalog mutations")
	fmt.Println("  console   Interactive local edit session")
	fmt.Println("  version   Print the version")
	os.Exit(1)
}

// getConfigPath returns the path to the catalogd config file.
// Priority: CATALOGD_CONFIG env var > XDG_CONFIG_HOME/catalogd/catalogd.yaml > ~/.config/catalogd/catalogd.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CATALOGD_CONFIG"); envPath != "" {
		return envPath
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "catalogd.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "catalogd", "catalogd.yaml")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "check":
		runCheck()
	case "list":
		runList()
	case "audit":
		runAudit()
	case "console":
		runConsole()
	case "version":
		fmt.Println("catalogd", version)
	default:
		usage()
	}
}

// openCatalog builds the full service stack from the config file.
// A malformed taxonomy document fails here: it indicates on-disk corruption
// that must not be silently discarded.
func openCatalog(withMetrics bool) (*config.Config, *catalog.Service, func(), *metrics.Metrics, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("config error: %w", err)
	}
	logger := setupLogger(cfg)

	tax, err := taxonomy.Open(cfg.Storage.TaxonomyPath, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("taxonomy error: %w", err)
	}
	ast, err := assets.Open(cfg.Storage.AssetsPath, tax.List(), logger)
	if err != nil {
		tax.Close()
		return nil, nil, nil, nil, fmt.Errorf("assets error: %w", err)
	}
	auditLog, err := audit.Open(cfg.Storage.AuditPath, logger)
	if err != nil {
		ast.Close()
		tax.Close()
		return nil, nil, nil, nil, fmt.Errorf("audit error: %w", err)
	}

	var m *metrics.Metrics
	if withMetrics && cfg.Metrics.Enabled {
		m = metrics.New()
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		logger.Info("metrics endpoint started", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
	}

	svc := catalog.New(tax, ast, auditLog, m, logger)
	cleanup := func() {
		auditLog.Close()
		ast.Close()
		tax.Close()
	}
	return cfg, svc, cleanup, m, nil
}

// mustOpenCatalog exits nonzero when the stack cannot be built.
func mustOpenCatalog(withMetrics bool) (*config.Config, *catalog.Service, func(), *metrics.Metrics) {
	cfg, svc, cleanup, m, err := openCatalog(withMetrics)
	if err != nil {
		fatal("%v", err)
	}
	return cfg, svc, cleanup, m
}

func runCheck() {
	_, svc, cleanup, _ := mustOpenCatalog(false)
	defer cleanup()

	sections := svc.Sections()
	modes := 0
	for _, sec := range sections {
		modes += len(sec.Modes)
	}
	repairs, err := svc.Reconcile()
	if err != nil {
		fatal("reconciliation failed: %v", err)
	}

	color.Green("taxonomy OK: %d sections, %d modes", len(sections), modes)
	if repairs > 0 {
		color.Yellow("asset table repaired: %d entries added or pruned", repairs)
	} else {
		color.Green("asset table consistent with taxonomy")
	}
}

func runList() {
	_, svc, cleanup, _ := mustOpenCatalog(false)
	defer cleanup()

	bold := color.New(color.Bold)
	for _, sec := range svc.Sections() {
		bold.Printf("%s  ", sec.Name)
		color.New(color.Faint).Printf("(%s)\n", sec.ID)
		for _, m := range sec.Modes {
			if ref, ok := svc.Asset(sec.Name, m.Name); ok {
				color.Green("  ✓ %s  %s", m.Name, ref)
			} else {
				color.Red("  ✗ %s  (no asset)", m.Name)
			}
		}
	}
}

func runAudit() {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		fatal("config error: %v", err)
	}
	logger := setupLogger(cfg)

	auditLog, err := audit.Open(cfg.Storage.AuditPath, logger)
	if err != nil {
		fatal("audit error: %v", err)
	}
	defer auditLog.Close()

	entries, err := auditLog.Recent(context.Background(), 50)
	if err != nil {
		fatal("audit query failed: %v", err)
	}
	for _, e := range entries {
		target := e.SectionName
		if e.ModeName != "" {
			target += " · " + e.ModeName
		}
		fmt.Printf("%s  %-14s  %-24s  %s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Op, target, e.Actor, e.Detail)
	}
}

func fatal(format string, args ...any) {
	color.Red(format, args...)
	os.Exit(1)
}
