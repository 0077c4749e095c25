package mcp

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/kwindex/internal/config"
	"github.com/dshills/kwindex/internal/indexer"
	"github.com/dshills/kwindex/internal/keywordlist"
	"github.com/dshills/kwindex/internal/matcher"
	"github.com/dshills/kwindex/internal/navigation"
	"github.com/dshills/kwindex/internal/searcher"
	"github.com/dshills/kwindex/internal/storage"
	"github.com/dshills/kwindex/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "kwindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// navKey identifies the navigation state of one keyword in one source
type navKey struct {
	sourceID int64
	keyword  types.KeywordKey
}

// navEntry is a navigation state and the pages rendered into it
type navEntry struct {
	state    *navigation.State
	rendered map[int]string
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	indexer  *indexer.Indexer
	lock     *indexer.IndexLock
	searcher *searcher.Searcher
	lists    []*types.KeywordList
	indexCfg *indexer.Config
	logger   *log.Logger

	navMu sync.Mutex
	nav   map[navKey]*navEntry
}

// NewServer opens the database named by cfg and creates a server over it
func NewServer(cfg *config.Config, logger *log.Logger) (*Server, error) {
	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s, err := newServer(store, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// newServer wires the indexer and searcher to store. They share one
// compiled pattern cache.
func newServer(store storage.Storage, cfg *config.Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	lists, err := cfg.LoadKeywordLists()
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword lists: %w", err)
	}
	bins, err := cfg.LoadBINLookup()
	if err != nil {
		return nil, fmt.Errorf("failed to load BIN table: %w", err)
	}

	ingest := keywordlist.ForIngest(lists)
	if len(ingest) == 0 {
		logger.Printf("no keyword lists enabled for ingest; documents will be chunked without hits")
	}

	matcherCfg := cfg.MatcherConfig()
	indexCfg := cfg.IndexerConfig()
	patterns := matcher.NewPatternCache(matcher.DefaultPatternCacheSize, logger)

	m := matcher.New(ingest, matcherCfg,
		matcher.WithLogger(logger),
		matcher.WithPatternCache(patterns))

	lock := &indexer.IndexLock{}
	idxOpts := []indexer.Option{indexer.WithLogger(logger), indexer.WithLock(lock)}
	if bins != nil {
		idxOpts = append(idxOpts, indexer.WithBINLookup(bins))
	}
	idx := indexer.New(store, m, idxOpts...)

	srch := searcher.NewSearcher(store, matcherCfg,
		searcher.WithLogger(logger),
		searcher.WithPatternCache(patterns),
		searcher.WithWorkers(indexCfg.Workers))

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		indexer:  idx,
		lock:     lock,
		searcher: srch,
		lists:    lists,
		indexCfg: indexCfg,
		logger:   logger,
		nav:      make(map[navKey]*navEntry),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the database
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(indexFilesTool(), s.handleIndexFiles)
	s.mcp.AddTool(keywordSearchTool(), s.handleKeywordSearch)
	s.mcp.AddTool(listHitsTool(), s.handleListHits)
	s.mcp.AddTool(navigateHitsTool(), s.handleNavigateHits)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}

// resetNavigation drops all navigation states; pages change when the index
// does
func (s *Server) resetNavigation() {
	s.navMu.Lock()
	s.nav = make(map[navKey]*navEntry)
	s.navMu.Unlock()
}
