// Package config loads kwindex settings from the environment.
//
// Variables are read with caarlos0/env after an optional .env file has been
// loaded with godotenv. Variables already set in the environment win over
// the file.
//
//	KWINDEX_DB_PATH            database file (default ~/.kwindex/kwindex.db)
//	KWINDEX_KEYWORD_LISTS      TOML keyword list file
//	KWINDEX_BUILTIN_LISTS      comma separated built-in lists to ingest with, or *
//	KWINDEX_BIN_TABLE          JSON bank table for card enrichment
//	KWINDEX_WORKERS            concurrent documents (default: number of CPUs)
//	KWINDEX_EXTRACT_MODE       auto, text, strings, utf16le or utf16be
//	KWINDEX_MIN_PRINTABLE      shortest run kept in strings mode (default 4)
//	KWINDEX_INCLUDE_SNIPPETS   attach snippets to hits (default true)
//	KWINDEX_SNIPPET_CONTEXT    characters on each side of a hit (default 20)
//	KWINDEX_SNIPPET_DELIMITER  marks the hit inside its snippet (default «)
//	KWINDEX_VERBOSE            log matcher and indexer diagnostics to stderr
package config
