// Steward is a voice-style assistant that turns natural language
// commands into local actions: file management, app control, web
// search, media playback, and calendar entries. Commands are
// classified by a language model into a closed intent taxonomy, then
// validated and dispatched to capability providers.
//
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	steward serve            Start the API server (HTTP, WebSocket, MQTT)
//	steward repl             Interactive command session on the terminal
//	steward ask <command>    Run a single command (for testing)
//	steward init [dir]       Initialize a working directory with defaults
//	steward version          Print version and build information
//	steward -o json version  Output version information as JSON
package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/stewardbot/steward/internal/api"
	"github.com/stewardbot/steward/internal/apps"
	"github.com/stewardbot/steward/internal/assistant"
	"github.com/stewardbot/steward/internal/buildinfo"
	"github.com/stewardbot/steward/internal/calendar"
	"github.com/stewardbot/steward/internal/config"
	"github.com/stewardbot/steward/internal/dispatch"
	"github.com/stewardbot/steward/internal/history"
	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/internal/media"
	"github.com/stewardbot/steward/internal/mqttbridge"
	"github.com/stewardbot/steward/internal/osagent"
	"github.com/stewardbot/steward/internal/pipeline"
	"github.com/stewardbot/steward/internal/platform"
	"github.com/stewardbot/steward/internal/secrets"
	"github.com/stewardbot/steward/internal/webauto"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the steward command. All OS-level
// dependencies are injected as parameters so the lifecycle can be
// driven from tests. Arguments are parsed by hand: the flag package
// relies on package-level globals, which interferes with parallel
// tests, and the argument surface is small.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, stderr, configPath)
	case "repl":
		return runRepl(ctx, stdin, stdout, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: steward ask <command>")
		}
		return runAsk(ctx, stdout, configPath, strings.Join(cmdArgs, " "))
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Steward - Natural Language Command Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: steward [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server (HTTP, WebSocket, MQTT)")
	fmt.Fprintln(w, "  repl         Interactive command session on the terminal")
	fmt.Fprintln(w, "  ask          Run a single command (for testing)")
	fmt.Fprintln(w, "  init [dir]   Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./steward.yaml, ~/.config/steward/config.yaml, /etc/steward/config.yaml")
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// runInit writes a starter config into dir.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "steward.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	}

	starter := `# Steward configuration
listen:
  port: 8080

llm:
  provider: ollama
  ollama_url: http://localhost:11434
  model: qwen3:4b
  # gemini_api_key: ${GEMINI_API_KEY}

# search:
#   searx_url: http://localhost:8888

# calendar:
#   url: https://dav.example.com/calendars/me/
#   username: me
#   credential_key: caldav_password

# mqtt:
#   enabled: true
#   broker: mqtt://broker.local:1883
#   device_name: steward

shell_exec:
  enabled: false

data_dir: ./data
log_level: info
`
	if err := os.WriteFile(path, []byte(starter), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the YAML configuration file. If
// explicit is non-empty, that exact path is used (and must exist).
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// newCompleter builds the completion client stack: the configured
// primary provider first, any other configured provider as fallback.
// Each provider is individually capped at llm.timeout_sec per call.
func newCompleter(cfg *config.Config, logger *slog.Logger) llm.Completer {
	var completers []llm.Completer
	timeout := time.Duration(cfg.LLM.TimeoutSec) * time.Second

	ollama := llm.WithCallTimeout(llm.NewOllamaClient(cfg.LLM.OllamaURL, cfg.LLM.Model), timeout)
	var gemini llm.Completer
	if cfg.LLM.GeminiAPIKey != "" {
		gemini = llm.WithCallTimeout(llm.NewGeminiClient(cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, logger), timeout)
	}

	if cfg.LLM.Provider == "gemini" && gemini != nil {
		completers = append(completers, gemini, ollama)
	} else {
		completers = append(completers, ollama)
		if gemini != nil {
			completers = append(completers, gemini)
		}
	}

	if len(completers) == 1 {
		return completers[0]
	}
	return llm.NewMultiCompleter(logger, completers...)
}

// buildEnvironment assembles the capability providers and pipeline
// shared by every entry point. The returned cleanup closes any stores
// that were opened.
func buildEnvironment(cfg *config.Config, logger *slog.Logger, withStores bool) (*pipeline.Pipeline, *history.Store, func(), error) {
	host := platform.Detect()
	completer := newCompleter(cfg, logger)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	shell := osagent.NewShellExec(shellExecConfig(cfg))
	providers := &dispatch.Providers{
		OS:        osagent.New(host, shell, logger),
		Apps:      apps.New(host, logger),
		Web:       webauto.New(host, cfg.Search.SearxURL, completer, logger),
		Media:     media.New(host, logger),
		Assistant: assistant.New(completer, logger),
		Logger:    logger,
	}

	var hist *history.Store
	if withStores {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
		}

		var err error
		hist, err = history.NewStore(filepath.Join(cfg.DataDir, "history.db"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open history database: %w", err)
		}
		closers = append(closers, func() { hist.Close() })
		logger.Info("history database opened", "dir", cfg.DataDir)

		if cfg.Calendar.URL != "" {
			cal, err := buildCalendar(cfg, logger, &closers)
			if err != nil {
				logger.Warn("calendar disabled", "error", err)
			} else {
				providers.Calendar = cal
			}
		}
	}

	pipe := pipeline.New(completer, providers, host, hist, logger)
	return pipe, hist, cleanup, nil
}

// buildCalendar connects the CalDAV provider, fetching the password
// from the encrypted secrets store.
func buildCalendar(cfg *config.Config, logger *slog.Logger, closers *[]func()) (*calendar.Manager, error) {
	password := ""
	if cfg.Calendar.CredentialKey != "" {
		store, err := secrets.NewStore(
			filepath.Join(cfg.DataDir, "secrets.db"),
			filepath.Join(cfg.DataDir, "secrets.key"),
		)
		if err != nil {
			return nil, fmt.Errorf("open secrets store: %w", err)
		}
		*closers = append(*closers, func() { store.Close() })

		password, err = store.Get(cfg.Calendar.CredentialKey)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("secret %q not found; store it with the secrets tooling first", cfg.Calendar.CredentialKey)
			}
			return nil, fmt.Errorf("read secret %q: %w", cfg.Calendar.CredentialKey, err)
		}
	}

	return calendar.New(cfg.Calendar.URL, cfg.Calendar.Username, password, logger)
}

func shellExecConfig(cfg *config.Config) osagent.ShellExecConfig {
	sec := osagent.DefaultShellExecConfig()
	sec.Enabled = cfg.ShellExec.Enabled
	sec.WorkingDir = cfg.ShellExec.WorkingDir
	sec.AllowedCmds = cfg.ShellExec.AllowedPrefixes
	sec.DeniedCmds = append(sec.DeniedCmds, cfg.ShellExec.DeniedPatterns...)
	if cfg.ShellExec.DefaultTimeoutSec > 0 {
		sec.DefaultTimeout = time.Duration(cfg.ShellExec.DefaultTimeoutSec) * time.Second
	}
	return sec
}

// runServe starts the HTTP API server and, when configured, the MQTT
// command bridge. It blocks until the context is cancelled by SIGINT
// or SIGTERM, then shuts both down gracefully.
func runServe(ctx context.Context, stdout, stderr io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting Steward", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Reconfigure now that the desired level is known. The initial
	// Info-level logger covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe, hist, cleanup, err := buildEnvironment(cfg, logger, true)
	if err != nil {
		return err
	}
	defer cleanup()

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, pipe, hist, logger)

	var bridge *mqttbridge.Bridge
	if cfg.MQTT.Enabled {
		instanceID, err := mqttbridge.LoadOrCreateInstanceID(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("mqtt instance ID: %w", err)
		}
		logger.Info("mqtt instance ID loaded", "instance_id", instanceID)
		bridge = mqttbridge.New(cfg.MQTT, instanceID, pipe, logger)
		go func() {
			if err := bridge.Start(ctx); err != nil {
				logger.Error("mqtt bridge failed", "error", err)
			}
		}()
	}

	printWebUIQR(stdout, cfg, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start(ctx)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if bridge != nil {
		if err := bridge.Stop(shutdownCtx); err != nil {
			logger.Warn("mqtt shutdown failed", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown failed", "error", err)
	}
	return nil
}

// printWebUIQR renders a terminal QR code pointing a phone at the web
// UI. Cosmetic only; failures are logged and ignored.
func printWebUIQR(w io.Writer, cfg *config.Config, logger *slog.Logger) {
	host := cfg.Listen.Address
	if host == "" || host == "0.0.0.0" {
		hostname, err := os.Hostname()
		if err != nil {
			return
		}
		host = hostname
	}
	uiURL := fmt.Sprintf("http://%s:%d/ui", host, cfg.Listen.Port)

	qr, err := qrcode.New(uiURL, qrcode.Low)
	if err != nil {
		logger.Debug("qr code generation failed", "error", err)
		return
	}
	fmt.Fprintf(w, "\nWeb UI: %s\n%s\n", uiURL, qr.ToSmallString(false))
}

// runRepl runs an interactive session on the terminal. It exits on
// EOF, interrupt, or the session-ending phrase.
func runRepl(ctx context.Context, stdin io.Reader, stdout io.Writer, configPath string) error {
	logger := newLogger(io.Discard, slog.LevelInfo) // keep the terminal clean

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe, _, cleanup, err := buildEnvironment(cfg, logger, true)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(stdout, "%s\nHow can I help? (say \"exit steward\" to quit)\n", buildinfo.String())

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp := pipe.Process(ctx, "repl", line)
		fmt.Fprintln(stdout, resp.Text)
		if resp.Exit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// runAsk processes a single command and prints the response. No
// persistent stores are opened; history is skipped.
func runAsk(ctx context.Context, stdout io.Writer, configPath, command string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	pipe, _, cleanup, err := buildEnvironment(cfg, logger, false)
	if err != nil {
		return err
	}
	defer cleanup()

	resp := pipe.Process(ctx, "cli", command)
	fmt.Fprintln(stdout, resp.Text)
	return nil
}
