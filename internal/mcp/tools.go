package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/kwindex/internal/extract"
	"github.com/dshills/kwindex/internal/indexer"
	"github.com/dshills/kwindex/internal/navigation"
	"github.com/dshills/kwindex/internal/searcher"
	"github.com/dshills/kwindex/internal/storage"
	"github.com/dshills/kwindex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeSourceNotFound     = -32001 // Specified source is not indexed
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNavigation         = -32003 // Requested move is not possible
	ErrorCodeEmptyQuery         = -32004 // Search term is empty
)

// maxReportedErrors bounds the document errors returned per job
const maxReportedErrors = 5

// handleIndexFiles handles the index_files tool invocation
func (s *Server) handleIndexFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	paths := getStringSlice(args, "paths")
	if len(paths) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "paths parameter is required", map[string]interface{}{
			"param":  "paths",
			"reason": "missing or empty",
		})
	}

	var files, dirs []string
	for _, path := range paths {
		info, err := validatePath(path)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
				"param":  "paths",
				"path":   path,
				"reason": err.Error(),
			})
		}
		if info.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
	}

	config := *s.indexCfg
	if raw := getStringDefault(args, "mode", ""); raw != "" {
		mode, err := extract.ParseMode(raw)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
				"param":   "mode",
				"value":   raw,
				"allowed": []string{"auto", "text", "strings", "utf16le", "utf16be"},
			})
		}
		config.Mode = mode
	}
	config.SkipUnchanged = !getBoolDefault(args, "force_reindex", false)
	config.IncludeHidden = getBoolDefault(args, "include_hidden", false)

	if s.indexer.Busy() {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	}

	var runs []*indexer.Statistics
	run := func(stats *indexer.Statistics, err error) error {
		if stats != nil {
			runs = append(runs, stats)
		}
		return err
	}

	var err error
	if len(files) > 0 {
		err = run(s.indexer.IndexFiles(ctx, files, &config))
	}
	for _, dir := range dirs {
		if err != nil {
			break
		}
		err = run(s.indexer.IndexDirectory(ctx, dir, &config))
	}

	if len(runs) > 0 {
		s.searcher.InvalidateCache()
		s.resetNavigation()
	}

	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
			"jobs":  formatRuns(runs),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"jobs":    formatRuns(runs),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

func formatRuns(runs []*indexer.Statistics) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(runs))
	for _, stats := range runs {
		job := map[string]interface{}{
			"job_id":             stats.JobID,
			"documents_indexed":  stats.DocumentsIndexed,
			"documents_skipped":  stats.DocumentsSkipped,
			"documents_failed":   stats.DocumentsFailed,
			"chunks_created":     stats.ChunksCreated,
			"hits_stored":        stats.HitsStored,
			"attributes_stored":  stats.AttributesStored,
			"matching_abandoned": stats.MatchingAbandoned,
			"duration_ms":        stats.Duration.Milliseconds(),
		}
		if n := len(stats.ErrorMessages); n > 0 {
			if n > maxReportedErrors {
				job["errors"] = stats.ErrorMessages[:maxReportedErrors]
				job["error_count"] = n
			} else {
				job["errors"] = stats.ErrorMessages
			}
		}
		out = append(out, job)
	}
	return out
}

// handleKeywordSearch handles the keyword_search tool invocation
func (s *Server) handleKeywordSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	req, err := parseKeywordRequest(args)
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 1000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 1000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	req.Limit = limit
	req.SourceIDs = getInt64Slice(args, "source_ids")
	req.UseCache = true

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, searchError(err)
	}

	paths := make(map[int64]string)
	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		path, err := s.sourcePath(ctx, paths, r.Hit.Source.ID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to load source", map[string]interface{}{
				"error": err.Error(),
			})
		}
		results = append(results, map[string]interface{}{
			"rank":        r.Rank,
			"source_id":   r.Hit.Source.ID,
			"path":        path,
			"document_id": r.Hit.Source.DocumentID(r.Hit.ChunkID),
			"chunk_id":    r.Hit.ChunkID,
			"hit":         r.Hit.Text,
			"snippet":     r.Hit.Snippet,
		})
	}

	response := map[string]interface{}{
		"term":           req.Term,
		"results":        results,
		"total_results":  resp.TotalResults,
		"sources":        resp.Sources,
		"chunks_scanned": resp.ChunksScanned,
		"prefiltered":    resp.Prefiltered,
		"cache_hit":      resp.CacheHit,
		"duration_ms":    resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListHits handles the list_hits tool invocation
func (s *Server) handleListHits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	sourceID := int64(getIntDefault(args, "source_id", 0))
	listName := getStringDefault(args, "list_name", "")
	term := getStringDefault(args, "term", "")
	limit := getIntDefault(args, "limit", 100)
	includeAttrs := getBoolDefault(args, "include_attributes", true)

	if limit < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be positive", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	var hits []*storage.KeywordHit
	var err error
	switch {
	case sourceID > 0:
		if _, err := s.storage.GetSource(ctx, sourceID); err != nil {
			return nil, sourceError(sourceID, err)
		}
		hits, err = s.storage.ListHitsBySource(ctx, sourceID)
		if listName != "" {
			hits = filterHits(hits, listName, term)
		}
	case listName != "":
		hits, err = s.storage.ListHitsByKeyword(ctx, listName, term)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "source_id or list_name is required", map[string]interface{}{
			"param":  "source_id",
			"reason": "missing",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list hits", map[string]interface{}{
			"error": err.Error(),
		})
	}

	total := len(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	paths := make(map[int64]string)
	out := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		path, err := s.sourcePath(ctx, paths, hit.SourceID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to load source", map[string]interface{}{
				"error": err.Error(),
			})
		}
		entry := map[string]interface{}{
			"id":            hit.ID,
			"source_id":     hit.SourceID,
			"path":          path,
			"chunk_id":      hit.ChunkID,
			"list_name":     hit.ListName,
			"keyword":       hit.OriginalTerm,
			"search_term":   hit.SearchTerm,
			"literal":       hit.IsLiteral,
			"whole_word":    hit.IsWholeWord,
			"type":          hit.AttrType,
			"hit":           hit.HitText,
			"snippet":       hit.Snippet,
			"job_id":        hit.JobID,
			"first_seen_at": hit.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if includeAttrs && hit.AttrType == string(types.AttrCreditCardNumber) {
			attrs, err := s.storage.ListAttributes(ctx, hit.ID)
			if err != nil {
				return nil, newMCPError(ErrorCodeInternalError, "failed to list attributes", map[string]interface{}{
					"error": err.Error(),
				})
			}
			entry["attributes"] = attrs
		}
		out = append(out, entry)
	}

	response := map[string]interface{}{
		"hits":       out,
		"total_hits": total,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

func filterHits(hits []*storage.KeywordHit, listName, term string) []*storage.KeywordHit {
	out := hits[:0]
	for _, hit := range hits {
		if hit.ListName != listName {
			continue
		}
		if term != "" && hit.OriginalTerm != term {
			continue
		}
		out = append(out, hit)
	}
	return out
}

// handleNavigateHits handles the navigate_hits tool invocation
func (s *Server) handleNavigateHits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	sourceID := int64(getIntDefault(args, "source_id", 0))
	if sourceID <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "source_id parameter is required", map[string]interface{}{
			"param":  "source_id",
			"reason": "missing or not positive",
		})
	}
	req, err := parseKeywordRequest(args)
	if err != nil {
		return nil, err
	}
	action := getStringDefault(args, "action", "current")
	render := getBoolDefault(args, "render", true)

	s.navMu.Lock()
	defer s.navMu.Unlock()

	key := navKey{sourceID: sourceID, keyword: req.Keyword().Key()}
	entry, ok := s.nav[key]
	if !ok || action == "reset" {
		state, err := s.searcher.PageState(ctx, sourceID, req)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, sourceError(sourceID, err)
			}
			return nil, searchError(err)
		}
		entry = &navEntry{state: state, rendered: make(map[int]string)}
		s.nav[key] = entry
	}
	state := entry.state

	// a page's hit count is only exact once it has been rendered
	if err := s.renderPage(ctx, entry, sourceID, req); err != nil {
		return nil, err
	}

	var moveErr error
	switch action {
	case "current", "reset":
	case "next_page":
		_, moveErr = state.NextPage()
	case "previous_page":
		_, moveErr = state.PreviousPage()
	case "next_hit":
		_, moveErr = state.NextItem()
	case "previous_hit":
		_, moveErr = state.PreviousItem()
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid action", map[string]interface{}{
			"param":   "action",
			"value":   action,
			"allowed": []string{"current", "next_page", "previous_page", "next_hit", "previous_hit", "reset"},
		})
	}
	if moveErr != nil {
		return nil, newMCPError(ErrorCodeNavigation, "cannot move", map[string]interface{}{
			"action": action,
			"reason": moveErr.Error(),
		})
	}

	if err := s.renderPage(ctx, entry, sourceID, req); err != nil {
		return nil, err
	}

	page := state.CurrentPage()
	response := map[string]interface{}{
		"source_id":         sourceID,
		"term":              req.Term,
		"pages":             state.Pages(),
		"number_pages":      state.NumberPages(),
		"page":              page,
		"hit":               state.CurrentItem(),
		"number_hits":       state.NumberHits(),
		"total_hits":        state.TotalHits(),
		"has_next_page":     state.HasNextPage(),
		"has_previous_page": state.HasPreviousPage(),
		"has_next_hit":      state.HasNextItem(),
		"has_previous_hit":  state.HasPreviousItem(),
	}
	if state.Loaded() {
		response["document_id"] = types.ContentSource(sourceID).DocumentID(page)
	}
	if item := state.CurrentItem(); item > 0 {
		response["anchor"] = navigation.Anchor(item)
	}
	if render && state.Loaded() {
		response["markup"] = entry.rendered[page]
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// renderPage highlights the current page once, which fixes its hit count
func (s *Server) renderPage(ctx context.Context, entry *navEntry, sourceID int64, req searcher.Request) error {
	if !entry.state.Loaded() {
		return nil
	}
	page := entry.state.CurrentPage()
	if _, done := entry.rendered[page]; done {
		return nil
	}

	chunk, terms, err := s.searcher.PageHits(ctx, sourceID, page, req)
	if err != nil {
		return newMCPError(ErrorCodeInternalError, "failed to load page", map[string]interface{}{
			"page":  page,
			"error": err.Error(),
		})
	}
	markup, err := entry.state.RenderPage(chunk.ToTypesChunk().Base(), terms)
	if err != nil {
		return newMCPError(ErrorCodeNavigation, "failed to render page", map[string]interface{}{
			"page":  page,
			"error": err.Error(),
		})
	}
	entry.rendered[page] = markup
	return nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	lists := make([]map[string]interface{}, 0, len(s.lists))
	for _, list := range s.lists {
		lists = append(lists, map[string]interface{}{
			"name":           list.Name,
			"keywords":       len(list.Keywords),
			"use_for_ingest": list.UseForIngest,
			"locked":         list.Locked,
		})
	}

	response := map[string]interface{}{
		"indexing_in_progress": s.indexer.Busy(),
		"statistics": map[string]interface{}{
			"sources_count":    status.SourcesCount,
			"chunks_count":     status.ChunksCount,
			"hits_count":       status.HitsCount,
			"attributes_count": status.AttributesCount,
			"jobs_count":       status.JobsCount,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_index_built":     status.Health.FTSIndexBuilt,
		},
		"keyword_lists": lists,
		"build": map[string]interface{}{
			"mode":   storage.BuildMode,
			"driver": storage.DriverName,
		},
	}
	if job := status.LastJob; job != nil {
		last := map[string]interface{}{
			"job_id":     job.ID,
			"status":     string(job.Status),
			"documents":  job.Documents,
			"failed":     job.Failed,
			"chunks":     job.Chunks,
			"hits":       job.Hits,
			"started_at": job.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if job.FinishedAt != nil {
			last["finished_at"] = job.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		if job.Error != nil {
			last["error"] = *job.Error
		}
		response["last_job"] = last
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// parseKeywordRequest reads the keyword fields shared by search and
// navigation
func parseKeywordRequest(args map[string]interface{}) (searcher.Request, error) {
	term, ok := args["term"].(string)
	if !ok || strings.TrimSpace(term) == "" {
		return searcher.Request{}, newMCPError(ErrorCodeEmptyQuery, "term parameter is required and cannot be empty", map[string]interface{}{
			"param":  "term",
			"reason": "missing or empty",
		})
	}

	attr, err := types.ParseAttributeType(getStringDefault(args, "type", ""))
	if err != nil {
		return searcher.Request{}, newMCPError(ErrorCodeInvalidParams, "invalid type", map[string]interface{}{
			"param":   "type",
			"value":   args["type"],
			"allowed": []string{"", "phone", "ip", "email", "url", "ccn"},
		})
	}

	return searcher.Request{
		Term:      term,
		Literal:   getBoolDefault(args, "literal", true),
		WholeWord: getBoolDefault(args, "whole_word", false),
		AttrType:  attr,
	}, nil
}

// searchError maps searcher failures to MCP errors
func searchError(err error) error {
	switch {
	case errors.Is(err, types.ErrEmptySearchTerm):
		return newMCPError(ErrorCodeEmptyQuery, "term cannot be empty", nil)
	case errors.Is(err, searcher.ErrInvalidRequest):
		return newMCPError(ErrorCodeInvalidParams, "invalid search request", map[string]interface{}{
			"reason": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// sourceError maps a failed source lookup to an MCP error
func sourceError(sourceID int64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return newMCPError(ErrorCodeSourceNotFound, "source not indexed", map[string]interface{}{
			"source_id": sourceID,
		})
	}
	return newMCPError(ErrorCodeInternalError, "failed to get source", map[string]interface{}{
		"error": err.Error(),
	})
}

// sourcePath looks up a source path, remembering it in paths
func (s *Server) sourcePath(ctx context.Context, paths map[int64]string, sourceID int64) (string, error) {
	if path, ok := paths[sourceID]; ok {
		return path, nil
	}
	source, err := s.storage.GetSource(ctx, sourceID)
	if err != nil {
		return "", err
	}
	paths[sourceID] = source.Path
	return source.Path, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that a path is absolute and readable
func validatePath(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return nil, ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, ErrPathNotReadable
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrPathNotReadable
	}
	_ = f.Close()

	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, ErrNotRegular
	}
	return info, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter; a single string is
// accepted as a one-element array
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case string:
		if val != "" {
			return []string{val}
		}
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, v := range val {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// getInt64Slice extracts an integer array parameter
func getInt64Slice(args map[string]interface{}, key string) []int64 {
	switch val := args[key].(type) {
	case []int64:
		return val
	case []interface{}:
		out := make([]int64, 0, len(val))
		for _, v := range val {
			switch n := v.(type) {
			case float64:
				out = append(out, int64(n))
			case int:
				out = append(out, int64(n))
			case int64:
				out = append(out, n)
			}
		}
		return out
	}
	return nil
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotRegular      = errors.New("path is neither a directory nor a regular file")
)
