package matcher

import (
	"context"
	"log"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/kwindex/pkg/types"
)

// plan is the precomputed search strategy for one keyword
type plan struct {
	keyword types.Keyword

	// term is the lower-cased literal gating substring extraction
	term string

	// probe gates extraction for whole word and regex keywords
	probe   string
	extract string

	// group is the capture group holding the hit when the pattern also
	// consumes the characters around it
	group int

	policy hitPolicy

	// wildcardSuffix disables boundary trimming for terms ending in ".*"
	wildcardSuffix bool
}

func newPlan(kw types.Keyword, cfg Config) *plan {
	p := &plan{
		keyword:        kw,
		policy:         policyFor(kw.AttributeType(), cfg),
		wildcardSuffix: strings.HasSuffix(kw.SearchTerm(), ".*"),
	}

	switch {
	case kw.IsSubstring():
		p.term = types.LowerCase(kw.SearchTerm())
		// expand to the surrounding token, including dots and apostrophes
		// so domain names and possessives come back whole
		p.extract = `(?i)[` + wordChars + `.']*` + regexp.QuoteMeta(p.term) + `[` + wordChars + `.']*`
	case kw.IsWholeWord():
		// RE2's \b only knows ASCII word characters
		p.term = types.LowerCase(kw.SearchTerm())
		p.probe = `(?i)(?:^|[^` + wordChars + `])(` + regexp.QuoteMeta(p.term) + `)(?:$|[^` + wordChars + `])`
		p.extract = p.probe
		p.group = 1
	default:
		// regex terms are not lower-cased: \D and \d are different things
		p.probe = `(?i)` + unicodeWordClasses(kw.SearchTerm())
		p.extract = p.probe
	}
	return p
}

// Matcher searches chunk text for the keywords of a set of keyword lists.
// It is read-only after New and safe for concurrent use; per-document state
// lives in Document.
type Matcher struct {
	cfg      Config
	logger   *log.Logger
	patterns *PatternCache

	plans    []*plan
	keywords []types.Keyword
	index    map[types.KeywordKey]int

	boundaryStart *regexp.Regexp
	boundaryEnd   *regexp.Regexp
}

// Option configures a Matcher
type Option func(*Matcher)

// WithLogger sets the logger for skipped keywords and match failures
func WithLogger(logger *log.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPatternCache shares a compiled pattern cache between matchers
func WithPatternCache(cache *PatternCache) Option {
	return func(m *Matcher) {
		m.patterns = cache
	}
}

// New creates a Matcher for the keywords of lists. Keywords are searched in
// list order; a keyword appearing twice is searched once. Empty keywords are
// skipped.
func New(lists []*types.KeywordList, cfg Config, opts ...Option) *Matcher {
	m := &Matcher{
		cfg:    cfg.withDefaults(),
		logger: log.Default(),
		index:  make(map[types.KeywordKey]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.patterns == nil {
		m.patterns = NewPatternCache(DefaultPatternCacheSize, m.logger)
	}

	boundary := m.cfg.BoundaryCharacters
	if _, err := regexp.Compile(boundary); err != nil {
		m.logger.Printf("matcher: invalid boundary characters %q, using default: %v", boundary, err)
		boundary = DefaultBoundaryCharacters
	}
	m.boundaryStart = regexp.MustCompile(`^` + boundary + `+`)
	m.boundaryEnd = regexp.MustCompile(boundary + `+$`)

	for _, list := range lists {
		if list == nil {
			continue
		}
		for _, kw := range list.Keywords {
			if err := kw.Validate(); err != nil {
				m.logger.Printf("matcher: skipping keyword in list %q: %v", list.Name, err)
				continue
			}
			key := kw.Key()
			if _, dup := m.index[key]; dup {
				continue
			}
			m.index[key] = len(m.plans)
			m.plans = append(m.plans, newPlan(kw, m.cfg))
			m.keywords = append(m.keywords, kw)
		}
	}
	return m
}

// Keywords returns the searched keywords in search order
func (m *Matcher) Keywords() []types.Keyword {
	return m.keywords
}

// Config returns the effective configuration
func (m *Matcher) Config() Config {
	return m.cfg
}

// NewDocument starts a search session for one document
func (m *Matcher) NewDocument(src types.Source) *Document {
	return &Document{
		m:       m,
		src:     src,
		seen:    make([]map[string]struct{}, len(m.plans)),
		results: newResults(m.keywords, m.index),
	}
}

// SearchString searches arbitrary text as a single chunk of its own document
func (m *Matcher) SearchString(ctx context.Context, src types.Source, chunkID int, text string) (*Results, error) {
	return m.NewDocument(src).search(ctx, chunkID, types.LowerCase(text))
}

func (m *Matcher) stripBoundary(hit string) string {
	hit = m.boundaryStart.ReplaceAllString(hit, "")
	return m.boundaryEnd.ReplaceAllString(hit, "")
}

// Document is the search session for one document. It remembers which hit
// texts were already reported so each is reported once per keyword. A
// Document must be used by one goroutine, with chunks searched in order.
type Document struct {
	m       *Matcher
	src     types.Source
	seen    []map[string]struct{}
	results *Results
}

// Source returns the document being searched
func (d *Document) Source() types.Source {
	return d.src
}

// SearchChunk searches one chunk and returns its new hits. Hits are also
// added to the document results. Cancellation is checked between keywords.
//
// A failure inside the regular expression engine returns a *MatchError
// wrapping ErrCatastrophicMatch; the rest of the document should be skipped.
func (d *Document) SearchChunk(ctx context.Context, chunk *types.Chunk) (*Results, error) {
	return d.search(ctx, chunk.ID, chunk.Lower())
}

// Results returns every hit found in the document so far
func (d *Document) Results() *Results {
	return d.results
}

func (d *Document) search(ctx context.Context, chunkID int, text string) (*Results, error) {
	res := newResults(d.m.keywords, d.m.index)
	for i, p := range d.m.plans {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		hits, err := d.searchKeyword(i, p, chunkID, text)
		if err != nil {
			d.m.logger.Printf("matcher: %v", err)
			return res, err
		}
		if len(hits) > 0 {
			res.add(i, hits...)
			d.results.add(i, hits...)
		}
	}
	return res, nil
}

func (d *Document) searchKeyword(i int, p *plan, chunkID int, text string) (hits []types.Hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = newMatchError(d.src, chunkID, p.keyword, r)
		}
	}()

	if p.probe == "" {
		if !strings.Contains(text, p.term) {
			return nil, nil
		}
	} else {
		probe, err := d.m.patterns.Get(p.probe)
		if err != nil {
			// reported once by the pattern cache
			return nil, nil
		}
		if !probe.MatchString(text) {
			return nil, nil
		}
	}

	re, err := d.m.patterns.Get(p.extract)
	if err != nil {
		return nil, nil
	}

	if d.seen[i] == nil {
		d.seen[i] = make(map[string]struct{})
	}
	return d.extract(p, d.seen[i], re, chunkID, text), nil
}

// extract walks the non-overlapping matches of re in text
func (d *Document) extract(p *plan, seen map[string]struct{}, re *regexp.Regexp, chunkID int, text string) []types.Hit {
	cfg := d.m.cfg
	var hits []types.Hit

	offset := 0
	for offset <= len(text) {
		loc := re.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[0], offset+loc[1]
		if p.group > 0 {
			start, end = offset+loc[2*p.group], offset+loc[2*p.group+1]
			// ^ also matches where the search resumed mid text
			if start == offset && wordBefore(text, start) {
				_, size := utf8.DecodeRuneInString(text[offset:])
				offset += max(size, 1)
				continue
			}
		}
		hit := text[start:end]
		if hit == "" {
			break
		}
		offset = end

		if p.policy.trimsBoundaries() && !p.wildcardSuffix {
			raw := hit
			hit = p.policy.trim(hit)
			// The pattern consumed the boundary character after the hit;
			// step back so it can also start the next match.
			if !strings.HasSuffix(raw, hit) {
				_, size := utf8.DecodeLastRuneInString(text[:offset])
				if offset-size > start {
					offset -= size
				}
			}
			// snippets show the boundary characters as context
			if i := strings.Index(raw, hit); i >= 0 && hit != "" {
				start += i
				end = start + len(hit)
			}
		}

		// regex keywords may match boundary characters on purpose
		if p.keyword.IsSubstring() {
			hit = d.m.stripBoundary(hit)
		}
		if hit == "" {
			continue
		}

		if _, dup := seen[hit]; dup {
			continue
		}
		seen[hit] = struct{}{}

		if p.policy.validate != nil && !p.policy.validate(hit) {
			continue
		}

		var snippet string
		if cfg.IncludeSnippets || p.policy.alwaysSnippet {
			snippet = makeSnippet(text, start, end, hit, cfg.SnippetContextChars, cfg.SnippetDelimiter)
		}
		hits = append(hits, types.NewHit(d.src, chunkID, snippet, hit))
	}
	return hits
}

// wordChars is the body of a character class matching Unicode word
// characters
const wordChars = `\p{L}\p{M}\p{N}_`

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}

// wordBefore reports whether the rune before text[i] is a word character
func wordBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

// unicodeWordClasses rewrites \w and \W in a regular expression to their
// Unicode forms. Inside a character class only \w can be rewritten.
func unicodeWordClasses(expr string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\' && i+1 < len(expr):
			next := expr[i+1]
			i++
			switch {
			case next == 'w' && inClass:
				b.WriteString(wordChars)
			case next == 'w':
				b.WriteString(`[` + wordChars + `]`)
			case next == 'W' && !inClass:
				b.WriteString(`[^` + wordChars + `]`)
			default:
				b.WriteByte(c)
				b.WriteByte(next)
			}
			continue
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			// a leading ] or ^] is literal
			if i+1 < len(expr) && expr[i+1] == '^' {
				i++
				b.WriteByte('^')
			}
			if i+1 < len(expr) && expr[i+1] == ']' {
				i++
				b.WriteByte(']')
			}
			continue
		case c == '[' && inClass && strings.HasPrefix(expr[i:], "[:"):
			// POSIX class such as [:alpha:]
			if n := strings.Index(expr[i:], ":]"); n > 0 {
				b.WriteString(expr[i : i+n+2])
				i += n + 1
				continue
			}
		case c == ']' && inClass:
			inClass = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
