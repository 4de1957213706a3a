package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finitefield.org/academic-web/internal/config"
)

var (
	envFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "web",
	Short: "Bilingual academic website served as a single page",
	Long: `web serves a personal academic site (posts, research, experience, CV)
from a tree of JSON documents and Markdown files. Pages switch between
languages and themes without losing the current route.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with SITE_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd, renderCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}
