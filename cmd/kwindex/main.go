package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/kwindex/internal/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	envFile string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kwindex",
	Short: "Chunk text evidence and index keyword hits",
	Long: `kwindex splits documents into overlapping chunks, searches them for
keyword lists (literal, whole word or regular expression) and stores the
first hit of every keyword and hit text, with account details for valid
credit card track data.

Settings come from KWINDEX_* environment variables, optionally loaded from
a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load settings from this file instead of .env")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides KWINDEX_DB_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")
}

// loadConfig reads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newLogger logs to stderr; stdout is reserved for results and the MCP
// protocol
func newLogger(cfg *config.Config) *log.Logger {
	if !cfg.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "kwindex: ", log.LstdFlags)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
