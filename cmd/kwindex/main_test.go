package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/kwindex/internal/searcher"
	"github.com/dshills/kwindex/internal/storage"
)

const travelLists = `
[[list]]
name = "Travel"
use_for_ingest = true

  [[list.keyword]]
  term = "passenger"
`

// execute runs the root command with fresh flag values and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	envFile, dbPath, verbose = "", "", false
	scanMode, scanForce, scanHidden, scanHits, scanJSON = "", false, false, false, false
	searchRegex, searchWholeWord, searchType, searchLimit, searchJSON = false, false, "", searcher.DefaultLimit, false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// setupEnv points the configuration at a temporary database and list file
func setupEnv(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()

	lists := filepath.Join(dir, "lists.toml")
	require.NoError(t, os.WriteFile(lists, []byte(travelLists), 0644))

	t.Chdir(dir)
	t.Setenv("KWINDEX_DB_PATH", filepath.Join(dir, "kwindex.db"))
	t.Setenv("KWINDEX_KEYWORD_LISTS", lists)
	t.Setenv("KWINDEX_WORKERS", "2")
	return dir
}

func writeEvidence(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, "evidence", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "kwindex version dev")
	assert.Contains(t, out, "Build Mode: "+storage.BuildMode)
	assert.Contains(t, out, "SQLite Driver: "+storage.DriverName)
}

func TestScanCommand(t *testing.T) {
	dir := setupEnv(t)
	writeEvidence(t, dir, "manifest.txt", "one passenger boarded the train")
	writeEvidence(t, dir, "notes.txt", "nothing to see here")

	out, err := execute(t, "scan", "--hits", filepath.Join(dir, "evidence"))
	require.NoError(t, err)

	assert.Contains(t, out, "2 indexed, 0 skipped, 0 failed")
	assert.Contains(t, out, "[Travel] passenger: passenger")
	assert.Contains(t, out, "manifest.txt:1")
}

func TestScanCommand_SkipsUnchanged(t *testing.T) {
	dir := setupEnv(t)
	file := writeEvidence(t, dir, "manifest.txt", "one passenger boarded the train")

	_, err := execute(t, "scan", file)
	require.NoError(t, err)

	out, err := execute(t, "scan", file)
	require.NoError(t, err)
	assert.Contains(t, out, "0 indexed, 1 skipped")

	out, err = execute(t, "scan", "--force", file)
	require.NoError(t, err)
	assert.Contains(t, out, "1 indexed, 0 skipped")
}

func TestScanCommand_JSON(t *testing.T) {
	dir := setupEnv(t)
	file := writeEvidence(t, dir, "manifest.txt", "passenger list: passenger two")

	out, err := execute(t, "scan", "--json", "--hits", file)
	require.NoError(t, err)

	var report scanReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Runs, 1)
	assert.Equal(t, 1, report.Runs[0].Indexed)
	assert.Equal(t, 1, report.Runs[0].Hits)
	require.Len(t, report.Hits, 1)
	assert.Equal(t, "passenger", report.Hits[0].HitText)
	assert.Equal(t, file, report.Hits[0].Path)
}

func TestScanCommand_Errors(t *testing.T) {
	dir := setupEnv(t)

	_, err := execute(t, "scan")
	assert.Error(t, err)

	_, err = execute(t, "scan", filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := writeEvidence(t, dir, "a.txt", "text")
	_, err = execute(t, "scan", "--mode", "ebcdic", file)
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	dir := setupEnv(t)
	writeEvidence(t, dir, "calls.txt", "call 555-1234 or 555-9876 today")

	_, err := execute(t, "scan", filepath.Join(dir, "evidence"))
	require.NoError(t, err)

	out, err := execute(t, "search", "--regex", `\d{3}-\d{4}`)
	require.NoError(t, err)
	assert.Contains(t, out, "555-1234")
	assert.Contains(t, out, "555-9876")
	assert.Contains(t, out, "2 of 2 hits")

	out, err = execute(t, "search", "zebra")
	require.NoError(t, err)
	assert.Contains(t, out, "No hits found.")
}

func TestSearchCommand_JSON(t *testing.T) {
	dir := setupEnv(t)
	file := writeEvidence(t, dir, "list.txt", "the passenger and the challenger")

	_, err := execute(t, "scan", file)
	require.NoError(t, err)

	out, err := execute(t, "search", "--json", "enger")
	require.NoError(t, err)

	var resp struct {
		Results      []searchHit `json:"results"`
		TotalResults int         `json:"total_results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.TotalResults)
	for _, h := range resp.Results {
		assert.Equal(t, file, h.Path)
	}
}

func TestSearchCommand_Errors(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "search", "--type", "fax", "x")
	assert.Error(t, err)

	_, err = execute(t, "search", "--regex", "(")
	assert.Error(t, err)
}

func TestUnderAny(t *testing.T) {
	roots := []string{"/evidence/case1", "/tmp/a.txt"}

	assert.True(t, underAny("/evidence/case1/x.txt", roots))
	assert.True(t, underAny("/tmp/a.txt", roots))
	assert.False(t, underAny("/evidence/case10/x.txt", roots))
	assert.False(t, underAny("/other", roots))
}
