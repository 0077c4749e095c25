package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/kwindex/internal/creditcard"
	"github.com/dshills/kwindex/internal/extract"
	"github.com/dshills/kwindex/internal/keywordlist"
	"github.com/dshills/kwindex/internal/matcher"
)

// chdirTemp runs the test from an empty directory so no stray .env is read
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, "auto", cfg.ExtractMode)
	assert.Equal(t, 4, cfg.MinPrintable)
	assert.True(t, cfg.IncludeSnippets)
	assert.Equal(t, 20, cfg.SnippetContext)
	assert.Equal(t, "«", cfg.SnippetDelimiter)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.BuiltinLists)
}

func TestLoad_Environment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("KWINDEX_DB_PATH", "/tmp/case.db")
	t.Setenv("KWINDEX_WORKERS", "3")
	t.Setenv("KWINDEX_EXTRACT_MODE", "strings")
	t.Setenv("KWINDEX_INCLUDE_SNIPPETS", "false")
	t.Setenv("KWINDEX_BUILTIN_LISTS", "Email Addresses,Credit Card Numbers")
	t.Setenv("KWINDEX_VERBOSE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/case.db", cfg.DBPath)
	assert.Equal(t, 3, cfg.Workers)
	assert.False(t, cfg.IncludeSnippets)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, []string{"Email Addresses", "Credit Card Numbers"}, cfg.BuiltinLists)

	ic := cfg.IndexerConfig()
	assert.Equal(t, 3, ic.Workers)
	assert.Equal(t, extract.ModeStrings, ic.Mode)
	assert.True(t, ic.SkipUnchanged)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	envFile := filepath.Join(dir, "case.env")
	require.NoError(t, os.WriteFile(envFile, []byte("KWINDEX_SNIPPET_CONTEXT=7\nKWINDEX_MIN_PRINTABLE=6\n"), 0644))

	// godotenv does not override variables that are already set
	t.Setenv("KWINDEX_SNIPPET_CONTEXT", "")
	require.NoError(t, os.Unsetenv("KWINDEX_SNIPPET_CONTEXT"))
	t.Setenv("KWINDEX_MIN_PRINTABLE", "")
	require.NoError(t, os.Unsetenv("KWINDEX_MIN_PRINTABLE"))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.SnippetContext)
	assert.Equal(t, 6, cfg.MinPrintable)

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "negative workers", key: "KWINDEX_WORKERS", value: "-1"},
		{name: "zero min printable", key: "KWINDEX_MIN_PRINTABLE", value: "0"},
		{name: "unknown mode", key: "KWINDEX_EXTRACT_MODE", value: "ocr"},
		{name: "unknown builtin list", key: "KWINDEX_BUILTIN_LISTS", value: "Licence Plates"},
		{name: "not a number", key: "KWINDEX_SNIPPET_CONTEXT", value: "wide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestResolveDBPath(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{DBPath: filepath.Join(dir, "nested", "kwindex.db")}
	path, err := cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, cfg.DBPath, path)
	assert.DirExists(t, filepath.Join(dir, "nested"))

	t.Setenv("HOME", dir)
	cfg = &Config{DBPath: "~/.kwindex/case.db"}
	path, err = cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".kwindex", "case.db"), path)

	cfg = &Config{DBPath: ":memory:"}
	path, err = cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", path)
}

func TestMatcherConfig(t *testing.T) {
	cfg := &Config{IncludeSnippets: false, SnippetContext: 5, SnippetDelimiter: "|"}
	mc := cfg.MatcherConfig()
	assert.False(t, mc.IncludeSnippets)
	assert.Equal(t, 5, mc.SnippetContextChars)
	assert.Equal(t, "|", mc.SnippetDelimiter)
	assert.Equal(t, matcher.DefaultBoundaryCharacters, mc.BoundaryCharacters)
}

func TestIndexerConfig_DefaultWorkers(t *testing.T) {
	cfg := &Config{ExtractMode: "auto", MinPrintable: 4}
	assert.Equal(t, runtime.NumCPU(), cfg.IndexerConfig().Workers)
}

func TestLoadKeywordLists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lists.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[[list]]
name = "Travel"
use_for_ingest = true

[[list.keyword]]
term = "passenger"
`), 0644))

	cfg := &Config{KeywordLists: file, BuiltinLists: []string{keywordlist.EmailAddresses}}
	lists, err := cfg.LoadKeywordLists()
	require.NoError(t, err)

	ingest := keywordlist.ForIngest(lists)
	require.Len(t, ingest, 2)
	assert.Equal(t, keywordlist.EmailAddresses, ingest[0].Name)
	assert.Equal(t, "Travel", ingest[1].Name)

	cfg = &Config{BuiltinLists: []string{AllBuiltinLists}}
	lists, err = cfg.LoadKeywordLists()
	require.NoError(t, err)
	assert.Len(t, keywordlist.ForIngest(lists), len(keywordlist.Builtin()))

	cfg = &Config{KeywordLists: filepath.Join(dir, "missing.toml")}
	_, err = cfg.LoadKeywordLists()
	assert.Error(t, err)
}

func TestLoadBINLookup(t *testing.T) {
	cfg := &Config{}
	lookup, err := cfg.LoadBINLookup()
	require.NoError(t, err)
	assert.Nil(t, lookup)

	dir := t.TempDir()
	file := filepath.Join(dir, "bins.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"version":"1","ranges":[{"start":"4111","scheme":"visa"}]}`), 0644))

	cfg = &Config{BINTable: file}
	lookup, err = cfg.LoadBINLookup()
	require.NoError(t, err)
	bin, err := creditcard.BINPrefix("4111111111111111")
	require.NoError(t, err)
	rec, found := lookup.Lookup(bin)
	require.True(t, found)
	assert.Equal(t, "visa", rec.Scheme)
}
