package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/kwindex/internal/matcher"
	"github.com/dshills/kwindex/internal/navigation"
	"github.com/dshills/kwindex/internal/storage"
	"github.com/dshills/kwindex/pkg/types"
)

// ErrInvalidRequest wraps every request validation failure
var ErrInvalidRequest = errors.New("invalid search request")

// AdhocListName is the keyword list name given to search terms
const AdhocListName = "ad hoc"

const (
	DefaultLimit    = 100
	MaxLimit        = 10000
	DefaultCacheTTL = 10 * time.Minute
	DefaultWorkers  = 4
)

// Request describes an ad-hoc keyword search over the indexed chunks
type Request struct {
	Term      string
	Literal   bool
	WholeWord bool
	AttrType  types.AttributeType

	// SourceIDs restricts the search; empty searches every source
	SourceIDs []int64

	Limit    int
	UseCache bool // Whether to use query cache
	CacheTTL time.Duration
}

// Keyword returns the keyword the request searches for
func (r Request) Keyword() types.Keyword {
	attr := r.AttrType
	if attr == "" {
		attr = types.AttrGeneric
	}
	return types.NewKeyword(r.Term, r.Literal, r.WholeWord, AdhocListName, r.Term, attr)
}

// Response contains search results and metadata
type Response struct {
	Results       []types.SearchResult
	TotalResults  int
	Sources       int
	ChunksScanned int
	Prefiltered   bool // candidate chunks came from the full-text index
	Duration      time.Duration
	CacheHit      bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher runs the matcher over stored chunk text
type Searcher struct {
	storage  storage.Storage
	cfg      matcher.Config
	patterns *matcher.PatternCache
	logger   *log.Logger
	workers  int
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// Option configures a Searcher
type Option func(*Searcher)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPatternCache shares compiled patterns with other matchers
func WithPatternCache(cache *matcher.PatternCache) Option {
	return func(s *Searcher) {
		if cache != nil {
			s.patterns = cache
		}
	}
}

// WithWorkers sets how many sources are searched at once
func WithWorkers(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage, cfg matcher.Config, opts ...Option) *Searcher {
	// Create LRU cache with 1000 entry limit
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	s := &Searcher{
		storage: store,
		cfg:     cfg,
		logger:  log.Default(),
		workers: DefaultWorkers,
		cache:   cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.patterns == nil {
		s.patterns = matcher.NewPatternCache(matcher.DefaultPatternCacheSize, s.logger)
	}
	return s
}

// Search finds the hits of an ad-hoc keyword in the indexed chunks. Hits
// follow the ingest rules: one per hit text and source. They are ranked by
// source path, then chunk order.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if req.UseCache {
		if cached, ok := s.checkCache(req); ok {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	kw := req.Keyword()
	m := s.newMatcher(kw)

	candidates, prefiltered, err := s.candidates(ctx, kw, req.SourceIDs)
	if err != nil {
		return nil, err
	}

	perSource := make([][]types.Hit, len(candidates))
	scanned := make([]int, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, c := range candidates {
		g.Go(func() error {
			hits, n, err := s.searchSource(gctx, m, kw, c)
			perSource[i] = hits
			scanned[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	response := &Response{
		Sources:     len(candidates),
		Prefiltered: prefiltered,
	}
	for i, hits := range perSource {
		response.ChunksScanned += scanned[i]
		response.TotalResults += len(hits)
		for _, hit := range hits {
			if len(response.Results) >= req.Limit {
				break
			}
			response.Results = append(response.Results, types.SearchResult{
				Rank:    len(response.Results) + 1,
				Keyword: kw,
				Hit:     hit,
			})
		}
	}
	response.Duration = time.Since(startTime)

	if req.UseCache {
		s.storeInCache(req, response)
	}
	return response, nil
}

// PageState builds the navigation state of one source for a request: the
// pages are the chunk ids with hits, each counted by the hits found there.
func (s *Searcher) PageState(ctx context.Context, sourceID int64, req Request) (*navigation.State, error) {
	req.SourceIDs = []int64{sourceID}
	req.Limit = MaxLimit
	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	source, err := s.storage.GetSource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get source %d: %w", sourceID, err)
	}
	chunks, err := s.storage.ListChunksBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	kw := req.Keyword()
	m := s.newMatcher(kw)

	// every page is searched on its own so repeated hit texts count on
	// each page they appear on
	hitsPerPage := make(map[int]int)
	for _, chunk := range chunks {
		res, err := m.NewDocument(source.Ref()).SearchChunk(ctx, chunk.ToTypesChunk())
		if err != nil {
			if errors.Is(err, matcher.ErrCatastrophicMatch) {
				s.logger.Printf("searcher: stopped paging %s: %v", source.Ref(), err)
				break
			}
			return nil, err
		}
		if n := len(res.Hits(kw)); n > 0 {
			hitsPerPage[chunk.ChunkID] = n
		}
	}
	return navigation.NewState(hitsPerPage), nil
}

// PageHits searches a single chunk of a source as a document of its own. It
// returns the chunk and the distinct hit texts found in it, in hit order.
func (s *Searcher) PageHits(ctx context.Context, sourceID int64, chunkID int, req Request) (*storage.Chunk, []string, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	source, err := s.storage.GetSource(ctx, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get source %d: %w", sourceID, err)
	}
	chunk, err := s.storage.GetChunk(ctx, sourceID, chunkID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chunk %s: %w", source.Ref().DocumentID(chunkID), err)
	}

	kw := req.Keyword()
	res, err := s.newMatcher(kw).NewDocument(source.Ref()).SearchChunk(ctx, chunk.ToTypesChunk())
	if err != nil {
		return nil, nil, err
	}
	hits := res.Hits(kw)
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Text)
	}
	return chunk, texts, nil
}

// InvalidateCache clears all cached search results. Call it after the index
// changes.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// candidate is a source and the chunks of it worth searching; nil chunks
// means all of them
type candidate struct {
	source   *storage.Source
	chunkIDs []int
}

// candidates picks the sources and chunks to scan. ASCII literal terms long
// enough for the trigram index are narrowed with it.
func (s *Searcher) candidates(ctx context.Context, kw types.Keyword, sourceIDs []int64) ([]candidate, bool, error) {
	sources, err := s.storage.ListSources(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sourceIDs) > 0 {
		sources = slices.DeleteFunc(sources, func(src *storage.Source) bool {
			return !slices.Contains(sourceIDs, src.ID)
		})
	}

	if !prefilterable(kw) {
		out := make([]candidate, 0, len(sources))
		for _, src := range sources {
			out = append(out, candidate{source: src})
		}
		return out, false, nil
	}

	matches, err := s.storage.SearchText(ctx, kw.SearchTerm(), 0)
	if err != nil {
		return nil, false, fmt.Errorf("failed to prefilter chunks: %w", err)
	}
	chunkIDs := make(map[int64][]int)
	for _, r := range matches {
		chunkIDs[r.SourceID] = append(chunkIDs[r.SourceID], r.ChunkID)
	}

	out := make([]candidate, 0, len(chunkIDs))
	for _, src := range sources {
		ids, ok := chunkIDs[src.ID]
		if !ok {
			continue
		}
		slices.Sort(ids)
		out = append(out, candidate{source: src, chunkIDs: ids})
	}
	return out, true, nil
}

func prefilterable(kw types.Keyword) bool {
	term := kw.SearchTerm()
	if !kw.IsLiteral() || utf8.RuneCountInString(strings.TrimSpace(term)) < storage.MinFTSQueryLength {
		return false
	}
	for i := 0; i < len(term); i++ {
		if term[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// searchSource runs one document session over the candidate chunks of a
// source in chunk order
func (s *Searcher) searchSource(ctx context.Context, m *matcher.Matcher, kw types.Keyword, c candidate) ([]types.Hit, int, error) {
	chunks, err := s.loadChunks(ctx, c)
	if err != nil {
		return nil, 0, err
	}

	doc := m.NewDocument(c.source.Ref())
	scanned := 0
	for _, chunk := range chunks {
		scanned++
		if _, err := doc.SearchChunk(ctx, chunk.ToTypesChunk()); err != nil {
			var matchErr *matcher.MatchError
			if errors.As(err, &matchErr) {
				s.logger.Printf("searcher: skipping rest of %s: %v", c.source.Ref(), err)
				break
			}
			return nil, scanned, err
		}
	}
	return doc.Results().Hits(kw), scanned, nil
}

func (s *Searcher) loadChunks(ctx context.Context, c candidate) ([]*storage.Chunk, error) {
	if c.chunkIDs == nil {
		chunks, err := s.storage.ListChunksBySource(ctx, c.source.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list chunks of source %d: %w", c.source.ID, err)
		}
		return chunks, nil
	}

	chunks := make([]*storage.Chunk, 0, len(c.chunkIDs))
	for _, id := range c.chunkIDs {
		chunk, err := s.storage.GetChunk(ctx, c.source.ID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get chunk %s: %w", c.source.Ref().DocumentID(id), err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (s *Searcher) newMatcher(kw types.Keyword) *matcher.Matcher {
	list := &types.KeywordList{Name: AdhocListName, Keywords: []types.Keyword{kw}}
	return matcher.New([]*types.KeywordList{list}, s.cfg,
		matcher.WithLogger(s.logger),
		matcher.WithPatternCache(s.patterns))
}

// validateRequest ensures search request is valid
func (s *Searcher) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Term) == "" {
		return types.ErrEmptySearchTerm
	}

	if req.AttrType == "" {
		req.AttrType = types.AttrGeneric
	}
	if _, err := types.ParseAttributeType(string(req.AttrType)); err != nil {
		return fmt.Errorf("%w: %q", err, req.AttrType)
	}

	// regular expressions are compiled up front so a bad one is an error
	// here rather than a silent empty result
	if !req.Literal {
		if _, err := s.patterns.Get("(?i)" + req.Keyword().SearchTerm()); err != nil {
			return err
		}
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}
	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req Request) (*Response, bool) {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil, false
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, false
	}

	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return response, true
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req Request, response *Response) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copyResponse copies the result slice; hits and keywords are immutable
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = slices.Clone(src.Results)
	return &dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req Request) [32]byte {
	var data strings.Builder
	data.WriteString(req.Term)
	data.WriteString("|")
	data.WriteString(strconv.FormatBool(req.Literal))
	data.WriteString("|")
	data.WriteString(strconv.FormatBool(req.WholeWord))
	data.WriteString("|")
	data.WriteString(string(req.AttrType))
	data.WriteString("|")
	data.WriteString(strconv.Itoa(req.Limit))
	data.WriteString("|sources:")
	ids := slices.Clone(req.SourceIDs)
	slices.Sort(ids)
	for _, id := range ids {
		data.WriteString(strconv.FormatInt(id, 10))
		data.WriteString(",")
	}
	return sha256.Sum256([]byte(data.String()))
}
