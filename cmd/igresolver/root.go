package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"igresolver/pkg/auth"
	"igresolver/pkg/config"
	"igresolver/pkg/instagram"
	"igresolver/pkg/logger"
	"igresolver/pkg/resolver"
	"igresolver/pkg/retry"
)

var (
	// Version information, set at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igresolver",
	Short: "Resolve Instagram posts, reels, and stories to downloadable media URLs",
	Long: `igresolver turns Instagram post, reel, and story links into direct media
URLs, trying a chain of resolution paths from the richest to the most
defensive:

  1. authenticated internal API (needs a session token)
  2. public embed metadata
  3. page scraping
  4. semi-public JSON endpoint

Results are cached briefly and concurrent lookups for the same content
share one upstream round trip.

Commands:
  resolve    resolve a single link and print the media URLs as JSON
  download   batch-download a list of links into numbered files
  serve      run the resolution engine as an HTTP service
  auth       manage stored session tokens`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.igresolver.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`igresolver {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfiguration loads config from file and environment, applies
// global flags, and initializes the logger
func loadConfiguration() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.GetLogger(), nil
}

// resolveSessionToken returns the session token to use: config first,
// then the stored credential manager
func resolveSessionToken(cfg *config.Config, log logger.Logger) string {
	if cfg.Instagram.SessionToken != "" {
		return cfg.Instagram.SessionToken
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("credential manager unavailable")
		return ""
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		log.Debug("no stored credentials, continuing without a session token")
		return ""
	}

	if account.UserAgent != "" {
		cfg.Instagram.UserAgent = account.UserAgent
	}
	return account.SessionToken
}

// buildEngine constructs the upstream client and the resolution engine
// from configuration
func buildEngine(cfg *config.Config, log logger.Logger) (*instagram.Client, *resolver.Resolver) {
	executor := retry.NewExecutor(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, cfg.Retry.TransportDelay, log)

	client := instagram.NewClient(cfg.Resolver.RequestTimeout, executor, log)
	if cfg.Instagram.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Instagram.UserAgent)
	}

	engine := resolver.New(client,
		resolver.WithCacheTTL(cacheTTL(cfg)),
		resolver.WithLogger(log),
	)
	return client, engine
}

func cacheTTL(cfg *config.Config) time.Duration {
	if cfg.Resolver.CacheTTL > 0 {
		return cfg.Resolver.CacheTTL
	}
	return resolver.DefaultCacheTTL
}
