// Package main is the entry point for antiarchy.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/monitoring"
	"github.com/antiarchy/antiarchy/internal/pages"
	"github.com/antiarchy/antiarchy/internal/server"
	"github.com/antiarchy/antiarchy/internal/tui"
	"github.com/antiarchy/antiarchy/internal/viewer"
)

// ANSI color codes
const (
	accent = "\033[38;2;190;40;40m"
	bold   = "\033[1m"
	reset  = "\033[0m"
)

func printBanner() {
	fmt.Print(accent + bold + "antiarchy" + reset + " " + Version + "\n\n")
}

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "antiarchy", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// local .env does not override values already set
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "start":
			runServe(os.Args[2:])
			return
		case "render":
			os.Exit(runRender(os.Args[2:], os.Stdout))
		case "hooks":
			os.Exit(runHooks(os.Args[2:], os.Stdout))
		case "init":
			os.Exit(runInit(os.Args[2:], tui.Std()))
		case "version", "-v", "--version":
			PrintVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	runServe(os.Args[1:])
}

// resolveServeConfig resolves the config file.
// Checks: user flag -> filesystem locations -> embedded config.
// Returns raw bytes and source description.
func resolveServeConfig(userConfig string) ([]byte, string, error) {
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".config", "antiarchy", "config.yaml"))
	}
	searchPaths = append(searchPaths, "configs/config.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	if data, err := getEmbeddedConfig("config"); err == nil {
		return data, "(embedded) config.yaml", nil
	}

	return nil, "", fmt.Errorf("no config file found. Specify --config path")
}

// loadConfig resolves and parses the config, then installs the global logger.
// quiet sends stdout logging to stderr so command output stays clean.
func loadConfig(path string, debug, quiet bool) (*config.Config, *monitoring.Logger, string, error) {
	data, source, err := resolveServeConfig(path)
	if err != nil {
		return nil, nil, "", err
	}
	cfg, err := config.LoadFromBytes(data)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: %w", source, err)
	}
	return cfg, setupLogging(cfg.Monitoring, debug, quiet), source, nil
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(m config.MonitoringConfig, debug, quiet bool) *monitoring.Logger {
	lc := monitoring.LoggerConfig{Level: m.LogLevel, Format: m.LogFormat, Output: m.LogOutput}
	if debug {
		lc.Level = "debug"
	}
	if quiet && (lc.Output == "" || lc.Output == "stdout") {
		lc.Output = "stderr"
	}
	return monitoring.Global(lc)
}

// runServe starts the HTTP server
func runServe(args []string) {
	loadEnvFiles()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	_ = fs.Parse(args) // ExitOnError handles errors

	if !*noBanner {
		printBanner()
	}

	cfg, logger, source, err := loadConfig(*configPath, *debug, false)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("version", Version).
		Str("config", source).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Type).
		Msg("antiarchy starting")

	h, err := wire(context.Background(), cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer h.close()

	log.Info().Strs("features", h.enabled).Msg("features registered")

	srv := server.New(cfg, h.hooks, h.store, h.live, logger, h.metrics)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("server error")
		return
	}

	log.Info().Msg("antiarchy stopped")
}

// runRender prints the document for one page, "" being home.
func runRender(args []string, out io.Writer) int {
	loadEnvFiles()

	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, logger, _, err := loadConfig(*configPath, *debug, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	h, err := wire(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer h.close()

	doc, err := pages.NewApp(h.hooks).Render(ctx, viewer.New(h.store, fs.Arg(0)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = out.Write(doc)
	return 0
}

// runHooks prints every registered hook with its priorities.
func runHooks(args []string, out io.Writer) int {
	loadEnvFiles()

	fs := flag.NewFlagSet("hooks", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	cfg, logger, _, err := loadConfig(*configPath, false, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	h, err := wire(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer h.close()

	printHooks(out, h.hooks)
	return 0
}

func printHooks(out io.Writer, d *hooks.Dispatcher) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tPRIORITIES")
	for _, kind := range []hooks.Kind{hooks.KindAction, hooks.KindFilter} {
		for _, info := range d.Describe(kind) {
			prios := make([]string, len(info.Priorities))
			for i, p := range info.Priorities {
				prios[i] = fmt.Sprint(p)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", kind, info.Name, strings.Join(prios, ","))
		}
	}
	_ = tw.Flush()
}

// printHelp prints usage information
func printHelp() {
	printBanner()
	fmt.Println("antiarchy - event board assembled from hook modules")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  antiarchy [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve        Start the HTTP server (default)")
	fmt.Println("  render PAGE  Print the HTML for PAGE (omit for home)")
	fmt.Println("  hooks        List registered actions and filters")
	fmt.Println("  init         Write a config file interactively")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    Config file (default: ~/.config/antiarchy/config.yaml,")
	fmt.Println("                   ./configs/config.yaml, then the embedded default)")
	fmt.Println("  --debug          Enable debug logging")
	fmt.Println("  --no-banner      Suppress startup banner (serve only)")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  ANTIARCHY_STORE_PATH   Override store.path")
	fmt.Println("  ANTIARCHY_LOG_LEVEL    Override monitoring.log_level")
}
