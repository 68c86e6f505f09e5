package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"decensor/pkg/auth"
	"decensor/pkg/config"
	"decensor/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dataDir    string
	siteURL    string
	listingURL string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "decensor",
	Short: "Resolve missing media info for censored Danbooru posts",
	Long: `Decensor resolves the md5, file extension and download URLs that the
Danbooru API withholds from censored posts.

It mirrors the community-maintained ID-to-MD5 dataset locally, refreshes
the mirror at most once per UTC day, and reconstructs the canonical
file, sample and preview URLs from the resolved identity.

Typical usage:

  curl -s 'https://danbooru.donmai.us/posts.json' | decensor resolve`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.decensor.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "mirror data directory (default is the per-OS data dir)")
	rootCmd.PersistentFlags().StringVar(&siteURL, "site-url", "", "base URL of the current image server")
	rootCmd.PersistentFlags().StringVar(&listingURL, "listing-url", "", "dataset listing endpoint override")

	// Version template
	rootCmd.SetVersionTemplate(`decensor {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration from flags, environment
// and config file, initializes logging, and resolves the optional API
// token.
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if siteURL != "" {
		flags["site-url"] = siteURL
	}
	if listingURL != "" {
		flags["listing-url"] = listingURL
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}

	// Keychain/environment token, unless the config already has one
	if cfg.Mirror.APIToken == "" {
		if token, err := auth.NewManager().Token(); err == nil {
			cfg.Mirror.APIToken = token
		}
	}

	return cfg, nil
}
