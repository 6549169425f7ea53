package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/clfetch/internal/config"
	"github.com/nao1215/clfetch/internal/fetch"
	"github.com/nao1215/clfetch/internal/log"
	"github.com/nao1215/clfetch/internal/proxy"
	"github.com/nao1215/clfetch/internal/report"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for clfetch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clfetch",
		Short: "Concurrent Craigslist page fetcher",
		Long: `clfetch fetches Craigslist search pages concurrently and extracts
listings from them.

It retries transient network failures with jittered exponential backoff,
fans page fetches out over a bounded worker pool, and streams results in
completion order. Reports come out as text, JSON, or Markdown, and search
results can be saved to a local history database.

Fetches go directly to the site by default. Use --socks5 to route them
through an existing SOCKS5 proxy, or --tor to start an embedded Tor daemon.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .clfetch in current or home directory)")
	cmd.PersistentFlags().String("socks5", "",
		"Route fetches through a SOCKS5 proxy at the given address (e.g., 127.0.0.1:9050)")
	cmd.PersistentFlags().Bool("tor", false,
		"Start an embedded Tor daemon and route fetches through it")
	cmd.PersistentFlags().DurationP("timeout", "t", fetch.DefaultAttemptTimeout,
		"Timeout for each fetch attempt")
	cmd.PersistentFlags().IntP("retries", "r", fetch.DefaultMaxAttempts,
		"Total attempts per fetch, first try included")
	cmd.PersistentFlags().IntP("pool", "p", fetch.DefaultPoolSize,
		"Number of concurrent fetches in a batch")

	// Add subcommands
	cmd.AddCommand(NewGetCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildConfig creates a Config from cobra command flags. The command must
// be attached to the root so the persistent flags resolve.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.SOCKS5Address, err = cmd.Flags().GetString("socks5")
	if err != nil {
		return nil, err
	}

	cfg.UseEmbeddedTor, err = cmd.Flags().GetBool("tor")
	if err != nil {
		return nil, err
	}

	cfg.AttemptTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxAttempts, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.PoolSize, err = cmd.Flags().GetInt("pool")
	if err != nil {
		return nil, err
	}

	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load search presets from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty presets if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Presets, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty presets if no file found and user didn't explicitly specify one
		cfg.Presets = &config.File{
			Searches: make(map[string]config.SearchPreset),
		}
	}

	// Flags that only some subcommands define.
	if cmd.Flags().Lookup("max-pages") != nil {
		cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Lookup("json") != nil {
		cfg.JSONReport, err = cmd.Flags().GetBool("json")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Lookup("markdown") != nil {
		cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Lookup("output") != nil {
		cfg.ReportFile, err = cmd.Flags().GetString("output")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Lookup("save") != nil {
		cfg.SaveToDB, err = cmd.Flags().GetBool("save")
		if err != nil {
			return nil, err
		}
	}

	// History lives in the XDG data directory
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// setupLogger creates the process logger. Verbose enables debug output;
// otherwise only warnings and errors are shown. Attribute values that look
// like credentials are masked before they reach the terminal.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// newSignalContext returns a context cancelled on SIGINT or SIGTERM so
// in-flight fetches stop cleanly on Ctrl-C.
func newSignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// newEngine assembles the fetch engine from the configuration, wiring in a
// SOCKS5 dialer or an embedded Tor daemon when one is requested. The
// returned cleanup releases whatever the engine was given and must be
// called once the run is done.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*fetch.Engine, func(), error) {
	opts := []fetch.Option{
		fetch.WithRetryPolicy(cfg.RetryPolicy()),
		fetch.WithPoolSize(cfg.PoolSize),
		fetch.WithAttemptTimeout(cfg.AttemptTimeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	}
	cleanup := func() {}

	switch {
	case cfg.UseEmbeddedTor:
		client, embedded, err := startEmbeddedTor(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		fc := fetch.NewClient(fetch.WithDialer(client.Dialer()))
		opts = append(opts, fetch.WithClient(fc))
		cleanup = func() {
			fc.CloseIdleConnections()
			logger.Info("stopping embedded Tor daemon...")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
	case cfg.SOCKS5Address != "":
		client, err := proxy.NewClient(cfg.SOCKS5Address)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create proxy client: %w", err)
		}

		status := client.CheckConnection(ctx)
		if status != proxy.StatusOK {
			return nil, nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is listening at %s)",
				status, cfg.SOCKS5Address)
		}
		logger.Info("proxy connection verified", "address", cfg.SOCKS5Address)

		fc := fetch.NewClient(fetch.WithDialer(client.Dialer()))
		opts = append(opts, fetch.WithClient(fc))
		cleanup = fc.CloseIdleConnections
	}

	return fetch.New(opts...), cleanup, nil
}

// startEmbeddedTor starts an embedded Tor daemon using tornago and returns
// a proxy client pointing at its SOCKS listener.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*proxy.Client, *proxy.EmbeddedTor, error) {
	fmt.Fprintln(os.Stderr, "Starting embedded Tor daemon...")
	fmt.Fprintf(os.Stderr, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := proxy.NewEmbeddedTor(
		proxy.WithStartupTimeout(cfg.TorStartupTimeout),
	)

	// Start the embedded Tor daemon
	if err := embedded.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", embedded.SocksAddr(),
		"controlAddr", embedded.ControlAddr(),
	)

	// Create a client using the embedded Tor's SOCKS proxy
	client, err := embedded.NewClient()
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create proxy client: %w", err)
	}

	// Verify the connection
	status := client.CheckConnection(ctx)
	if status != proxy.StatusOK {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	return client, embedded, nil
}

// newReportWriter builds the report writer the flags ask for, together with
// a close function for the underlying output. Reports go to stdout unless
// --output names a file.
func newReportWriter(cfg *config.Config) (report.Writer, func() error, error) {
	output := io.Writer(os.Stdout)
	closeFn := func() error { return nil }

	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
		closeFn = f.Close
	}

	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), closeFn, nil
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), closeFn, nil
	default:
		return report.NewSimpleWriter(output), closeFn, nil
	}
}
