// Command briefsmith builds weekly news briefs: it fetches and summarizes
// articles, manages paywall logins, and serves the HTTP API the editor UI
// talks to.
package main

import (
	"fmt"
	"os"

	"github.com/pevans/briefsmith/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	debugMode  bool
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

var current app

var rootCmd = &cobra.Command{
	Use:   "briefsmith",
	Short: "Build news briefs from article links",
	Long: `briefsmith fetches articles, summarizes them with an LLM and renders the
result as HTML, plaintext, newsletter and WordPress briefs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err := newLogger(debugMode)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		current = app{cfg: cfg, logger: logger}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current.logger != nil {
			_ = current.logger.Sync()
		}
	},
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default ~/.briefsmith/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, fetchCmd, parseCmd, generateCmd, feedCmd, sitesCmd, loginCmd, logoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
