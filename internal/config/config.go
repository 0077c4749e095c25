package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/dshills/kwindex/internal/creditcard"
	"github.com/dshills/kwindex/internal/extract"
	"github.com/dshills/kwindex/internal/indexer"
	"github.com/dshills/kwindex/internal/keywordlist"
	"github.com/dshills/kwindex/internal/matcher"
	"github.com/dshills/kwindex/pkg/types"
)

// DefaultDBPath is the default location for the database
const DefaultDBPath = "~/.kwindex/kwindex.db"

// AllBuiltinLists enables every built-in list when given in BuiltinLists
const AllBuiltinLists = "*"

// Config holds the settings shared by the CLI and the MCP server
type Config struct {
	DBPath       string   `env:"KWINDEX_DB_PATH" envDefault:"~/.kwindex/kwindex.db"`
	KeywordLists string   `env:"KWINDEX_KEYWORD_LISTS"` // TOML keyword list file
	BuiltinLists []string `env:"KWINDEX_BUILTIN_LISTS" envSeparator:","`
	BINTable     string   `env:"KWINDEX_BIN_TABLE"` // JSON bank table

	Workers      int    `env:"KWINDEX_WORKERS"`
	ExtractMode  string `env:"KWINDEX_EXTRACT_MODE" envDefault:"auto"`
	MinPrintable int    `env:"KWINDEX_MIN_PRINTABLE" envDefault:"4"`

	IncludeSnippets  bool   `env:"KWINDEX_INCLUDE_SNIPPETS" envDefault:"true"`
	SnippetContext   int    `env:"KWINDEX_SNIPPET_CONTEXT" envDefault:"20"`
	SnippetDelimiter string `env:"KWINDEX_SNIPPET_DELIMITER" envDefault:"«"`

	Verbose bool `env:"KWINDEX_VERBOSE"`
}

// Load reads a .env file if present and parses the environment. Named files
// replace the default ".env"; a missing default file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and names
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("KWINDEX_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.MinPrintable < 1 {
		return fmt.Errorf("KWINDEX_MIN_PRINTABLE must be at least 1, got %d", c.MinPrintable)
	}
	if c.SnippetContext < 0 {
		return fmt.Errorf("KWINDEX_SNIPPET_CONTEXT must not be negative, got %d", c.SnippetContext)
	}
	if _, err := extract.ParseMode(c.ExtractMode); err != nil {
		return fmt.Errorf("KWINDEX_EXTRACT_MODE: %w", err)
	}
	builtin := keywordlist.Builtin()
	for _, name := range c.BuiltinLists {
		name = strings.TrimSpace(name)
		if name == AllBuiltinLists || name == "" {
			continue
		}
		if _, ok := keywordlist.Find(builtin, name); !ok {
			return fmt.Errorf("KWINDEX_BUILTIN_LISTS: unknown list %q", name)
		}
	}
	return nil
}

// ResolveDBPath expands a leading ~ and creates the database directory
func (c *Config) ResolveDBPath() (string, error) {
	path := c.DBPath
	if path == "" {
		path = DefaultDBPath
	}
	if path == ":memory:" {
		return path, nil
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

// MatcherConfig returns the hit extraction settings
func (c *Config) MatcherConfig() matcher.Config {
	cfg := matcher.DefaultConfig()
	cfg.IncludeSnippets = c.IncludeSnippets
	if c.SnippetContext > 0 {
		cfg.SnippetContextChars = c.SnippetContext
	}
	if c.SnippetDelimiter != "" {
		cfg.SnippetDelimiter = c.SnippetDelimiter
	}
	return cfg
}

// IndexerConfig returns the ingest run settings
func (c *Config) IndexerConfig() *indexer.Config {
	mode, err := extract.ParseMode(c.ExtractMode)
	if err != nil {
		mode = extract.ModeAuto
	}
	workers := c.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return &indexer.Config{
		Workers:       workers,
		Mode:          mode,
		MinPrintable:  c.MinPrintable,
		SkipUnchanged: true,
	}
}

// LoadKeywordLists returns the built-in lists, with those named in
// BuiltinLists enabled for ingest, merged with the lists of the keyword file
func (c *Config) LoadKeywordLists() ([]*types.KeywordList, error) {
	lists := keywordlist.Builtin()
	for _, list := range lists {
		if slices.Contains(c.BuiltinLists, AllBuiltinLists) || slices.ContainsFunc(c.BuiltinLists, func(name string) bool {
			return strings.TrimSpace(name) == list.Name
		}) {
			list.UseForIngest = true
		}
	}

	if c.KeywordLists == "" {
		return lists, nil
	}
	extra, err := keywordlist.Load(c.KeywordLists)
	if err != nil {
		return nil, err
	}
	return keywordlist.Merge(lists, extra), nil
}

// LoadBINLookup returns the bank table, or nil when none is configured
func (c *Config) LoadBINLookup() (creditcard.BINLookup, error) {
	if c.BINTable == "" {
		return nil, nil
	}
	table, err := creditcard.LoadBINTable(c.BINTable)
	if err != nil {
		return nil, err
	}
	return table, nil
}
