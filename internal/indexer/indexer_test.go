package indexer

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/kwindex/internal/creditcard"
	"github.com/dshills/kwindex/internal/extract"
	"github.com/dshills/kwindex/internal/keywordlist"
	"github.com/dshills/kwindex/internal/matcher"
	"github.com/dshills/kwindex/internal/storage"
	"github.com/dshills/kwindex/pkg/types"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// setupTestStorage creates an in-memory SQLite database for testing
func setupTestStorage(t testing.TB) storage.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "Failed to create test storage")
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// createTestFile creates a temporary file for testing
func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

var (
	engerKeyword = types.NewKeyword("enger", true, false, "words", "", types.AttrGeneric)
	appleKeyword = types.NewKeyword("apple", true, true, "words", "", types.AttrGeneric)
)

func newTestIndexer(t testing.TB, store storage.Storage, lists ...*types.KeywordList) *Indexer {
	t.Helper()
	if len(lists) == 0 {
		lists = []*types.KeywordList{{
			Name:     "words",
			Keywords: []types.Keyword{engerKeyword, appleKeyword},
		}}
	}
	m := matcher.New(lists, matcher.DefaultConfig(), matcher.WithLogger(quietLogger()))
	return New(store, m, WithLogger(quietLogger()))
}

func TestNew(t *testing.T) {
	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)

	require.NotNil(t, idx)
	assert.NotNil(t, idx.storage)
	assert.NotNil(t, idx.matcher)
	assert.Nil(t, idx.bins)
	assert.False(t, idx.Busy())
}

func TestDiscoverFiles(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "a.txt", "a")
	createTestFile(t, tmpDir, "sub/b.bin", "b")
	createTestFile(t, tmpDir, ".hidden/c.txt", "c")

	files, err := discoverFiles(tmpDir, withDefaults(nil))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(tmpDir, "a.txt"),
		filepath.Join(tmpDir, "sub", "b.bin"),
	}, files)

	files, err = discoverFiles(tmpDir, withDefaults(&Config{IncludeHidden: true}))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	files, err := discoverFiles(t.TempDir(), withDefaults(nil))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWithDefaults(t *testing.T) {
	config := withDefaults(nil)
	assert.Greater(t, config.Workers, 0)
	assert.Equal(t, extract.ModeAuto, config.Mode)
	assert.Equal(t, extract.DefaultMinPrintable, config.MinPrintable)

	config = withDefaults(&Config{Workers: 3, Mode: extract.ModeStrings, MinPrintable: 8})
	assert.Equal(t, 3, config.Workers)
	assert.Equal(t, extract.ModeStrings, config.Mode)
	assert.Equal(t, 8, config.MinPrintable)
}

func TestComputeFileHash(t *testing.T) {
	tmpDir := t.TempDir()
	a := createTestFile(t, tmpDir, "a.txt", "same")
	b := createTestFile(t, tmpDir, "b.txt", "same")
	c := createTestFile(t, tmpDir, "c.txt", "different")

	hashA, size, err := computeFileHash(a)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	hashB, _, err := computeFileHash(b)
	require.NoError(t, err)
	hashC, _, err := computeFileHash(c)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.NotEqual(t, hashA, hashC)

	_, _, err = computeFileHash(filepath.Join(tmpDir, "missing"))
	assert.Error(t, err)
}

func TestIndexFiles_StoresChunksAndHits(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "notes.txt", "The passenger boarded with an apple apple apple.\n")

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)
	ctx := context.Background()

	stats, err := idx.IndexFiles(ctx, []string{path}, &Config{Workers: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, stats.JobID)
	assert.Equal(t, 1, stats.DocumentsIndexed)
	assert.Equal(t, 0, stats.DocumentsFailed)
	assert.Equal(t, 1, stats.ChunksCreated)
	assert.Equal(t, 2, stats.HitsStored)

	source, err := store.GetSourceByPath(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, types.SourceContent, source.Kind)
	assert.Equal(t, string(extract.ModeText), source.Mode)
	assert.Equal(t, 1, source.ChunkCount)
	assert.Nil(t, source.IndexError)

	chunk, err := store.GetChunk(ctx, source.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "The passenger boarded with an apple apple apple.\n", chunk.Content)

	hits, err := store.ListHitsBySource(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	texts := []string{hits[0].HitText, hits[1].HitText}
	assert.ElementsMatch(t, []string{"passenger", "apple"}, texts)
	for _, h := range hits {
		assert.Equal(t, stats.JobID, h.JobID)
		assert.Equal(t, 1, h.ChunkID)
	}

	job, err := store.GetJob(ctx, stats.JobID)
	require.NoError(t, err)
	assert.Equal(t, storage.JobCompleted, job.Status)
	assert.Equal(t, 1, job.Documents)
	assert.Equal(t, 2, job.Hits)
}

func TestIndexFiles_MultipleChunksDeduplicated(t *testing.T) {
	tmpDir := t.TempDir()
	content := strings.Repeat("lorem ipsum dolor sit amet apple ", 4000)
	path := createTestFile(t, tmpDir, "big.txt", content)

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)
	ctx := context.Background()

	stats, err := idx.IndexFiles(ctx, []string{path}, nil)
	require.NoError(t, err)
	assert.Greater(t, stats.ChunksCreated, 1)
	assert.Equal(t, 1, stats.HitsStored, "one hit per keyword and hit text per document")

	source, err := store.GetSourceByPath(ctx, path)
	require.NoError(t, err)
	chunks, err := store.ListChunksBySource(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, chunks, stats.ChunksCreated)

	var rebuilt strings.Builder
	for i, c := range chunks {
		assert.Equal(t, i+1, c.ChunkID)
		assert.LessOrEqual(t, len(c.Content), 32766)
		rebuilt.WriteString(c.ToTypesChunk().Base())
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestIndexFiles_CreditCardAttributes(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "dump.txt", "card ;4111111111111111=25121010000000000000? end\n")

	lists := keywordlist.Builtin()
	ccn, ok := keywordlist.Find(lists, keywordlist.CreditCardNumbers)
	require.True(t, ok)

	table, err := creditcard.NewBINTable([]*creditcard.BankRecord{
		{Start: 41111100, End: 41111199, Scheme: "visa", BankName: "Test Bank"},
	})
	require.NoError(t, err)

	store := setupTestStorage(t)
	m := matcher.New([]*types.KeywordList{ccn}, matcher.DefaultConfig(), matcher.WithLogger(quietLogger()))
	idx := New(store, m, WithLogger(quietLogger()), WithBINLookup(table))
	ctx := context.Background()

	stats, err := idx.IndexFiles(ctx, []string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HitsStored)
	assert.Greater(t, stats.AttributesStored, 0)

	hits, err := store.ListHitsByKeyword(ctx, keywordlist.CreditCardNumbers, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "4111111111111111", hits[0].HitText)
	assert.Equal(t, string(types.AttrCreditCardNumber), hits[0].AttrType)

	attrs, err := store.ListAttributes(ctx, hits[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", attrs[string(creditcard.AttrAccountNumber)])
	assert.Equal(t, creditcard.AccountTypeCreditCard, attrs[string(creditcard.AttrAccountType)])
	assert.Equal(t, "2512", attrs[string(creditcard.AttrExpiration)])
	assert.Equal(t, "101", attrs[string(creditcard.AttrServiceCode)])
	assert.Equal(t, "visa", attrs[string(creditcard.AttrScheme)])
	assert.Equal(t, "Test Bank", attrs[string(creditcard.AttrBankName)])
	_, hasDocID := attrs[string(creditcard.AttrDocumentID)]
	assert.False(t, hasDocID, "document ids are only recorded for artifacts")
}

func TestIndexFiles_LuhnFailureDropsHit(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "dump.txt", "card ;4111111111111112=2512101 end\n")

	ccn, ok := keywordlist.Find(keywordlist.Builtin(), keywordlist.CreditCardNumbers)
	require.True(t, ok)

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store, ccn)

	stats, err := idx.IndexFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.HitsStored)
}

func TestIndexFiles_StringsMode(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "blob.bin", "\x00\x01\x02secret passenger\x00\xff\xfeab\x00")

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)
	ctx := context.Background()

	stats, err := idx.IndexFiles(ctx, []string{path}, &Config{Mode: extract.ModeStrings})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HitsStored)

	source, err := store.GetSourceByPath(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, string(extract.ModeStrings), source.Mode)

	chunk, err := store.GetChunk(ctx, source.ID, 1)
	require.NoError(t, err)
	assert.NotContains(t, chunk.Content, "\x00")
	assert.Contains(t, chunk.Content, "secret passenger")
}

func TestIndexFiles_FailedDocumentDoesNotStopRun(t *testing.T) {
	tmpDir := t.TempDir()
	good := createTestFile(t, tmpDir, "good.txt", "passenger")
	missing := filepath.Join(tmpDir, "missing.txt")

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)

	stats, err := idx.IndexFiles(context.Background(), []string{missing, good}, &Config{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "missing.txt")
}

func TestIndexFiles_SkipUnchanged(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "notes.txt", "passenger")

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)
	ctx := context.Background()
	config := &Config{SkipUnchanged: true}

	stats, err := idx.IndexFiles(ctx, []string{path}, config)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)

	stats, err = idx.IndexFiles(ctx, []string{path}, config)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsSkipped)

	// Changed content is re-indexed and old hits replaced
	require.NoError(t, os.WriteFile(path, []byte("challenger"), 0644))
	stats, err = idx.IndexFiles(ctx, []string{path}, config)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)

	source, err := store.GetSourceByPath(ctx, path)
	require.NoError(t, err)
	hits, err := store.ListHitsBySource(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "challenger", hits[0].HitText)
}

func TestIndexDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "a.txt", "an apple")
	createTestFile(t, tmpDir, "nested/b.txt", "the passenger")
	createTestFile(t, tmpDir, ".git/c.txt", "apple passenger")

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)
	ctx := context.Background()

	stats, err := idx.IndexDirectory(ctx, tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentsIndexed)
	assert.Equal(t, 2, stats.HitsStored)

	sources, err := store.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestIndexArtifact(t *testing.T) {
	ccn, ok := keywordlist.Find(keywordlist.Builtin(), keywordlist.CreditCardNumbers)
	require.True(t, ok)

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store, ccn)
	ctx := context.Background()

	stats, err := idx.IndexArtifact(ctx, "unalloc_1_0_4096", strings.NewReader("x ;4111111111111111=2512101? y"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.HitsStored)

	source, err := store.GetSourceByPath(ctx, "unalloc_1_0_4096")
	require.NoError(t, err)
	assert.Equal(t, types.SourceArtifact, source.Kind)

	hits, err := store.ListHitsBySource(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	attrs, err := store.ListAttributes(ctx, hits[0].ID)
	require.NoError(t, err)
	assert.Equal(t, source.Ref().DocumentID(1), attrs[string(creditcard.AttrDocumentID)])
}

func TestIndexFiles_ConcurrentCalls(t *testing.T) {
	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)

	require.True(t, idx.lock.TryAcquire())
	assert.True(t, idx.Busy())

	_, err := idx.IndexFiles(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrIndexingInProgress)
	_, err = idx.IndexArtifact(context.Background(), "a", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrIndexingInProgress)

	idx.lock.Release()
	_, err = idx.IndexFiles(context.Background(), nil, nil)
	assert.NoError(t, err)
}

func TestIndexFiles_ContextCancellation(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "a.txt", "passenger")

	store := setupTestStorage(t)
	idx := newTestIndexer(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexFiles(ctx, []string{path}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, idx.Busy(), "the lock is released after a cancelled run")
}

func TestIndexLock_ConcurrentAcquisition(t *testing.T) {
	var lock IndexLock
	const numGoroutines = 100

	acquired := make([]bool, numGoroutines)
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			acquired[i] = lock.TryAcquire()
		}(i)
	}
	wg.Wait()

	successCount := 0
	for _, success := range acquired {
		if success {
			successCount++
		}
	}
	assert.Equal(t, 1, successCount, "Exactly one goroutine should acquire the lock")
	assert.True(t, lock.Held())

	lock.Release()
	assert.False(t, lock.Held())
	assert.True(t, lock.TryAcquire(), "Lock should be available after Release")
}
