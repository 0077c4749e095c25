package keywordlist

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/kwindex/pkg/types"
)

var (
	// ErrDuplicateList is returned when two lists share a name
	ErrDuplicateList = errors.New("duplicate keyword list")

	// ErrInvalidRegex is returned for a regex keyword that does not compile
	ErrInvalidRegex = errors.New("invalid regular expression")
)

type file struct {
	Lists []listEntry `toml:"list"`
}

type listEntry struct {
	Name           string         `toml:"name"`
	UseForIngest   bool           `toml:"use_for_ingest"`
	IngestMessages bool           `toml:"ingest_messages,omitempty"`
	Locked         bool           `toml:"locked,omitempty"`
	Keywords       []keywordEntry `toml:"keyword"`
}

type keywordEntry struct {
	Term      string `toml:"term"`
	Literal   *bool  `toml:"literal,omitempty"`
	WholeWord bool   `toml:"whole_word,omitempty"`
	Type      string `toml:"type,omitempty"`
	Original  string `toml:"original,omitempty"`
}

// Load reads keyword lists from a TOML file
func Load(path string) ([]*types.KeywordList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword lists: %w", err)
	}
	lists, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return lists, nil
}

// Parse decodes keyword lists from TOML. Every list is validated.
func Parse(data []byte) ([]*types.KeywordList, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse keyword lists: %w", err)
	}

	lists := make([]*types.KeywordList, 0, len(f.Lists))
	seen := make(map[string]bool, len(f.Lists))
	for _, entry := range f.Lists {
		list, err := entry.toList()
		if err != nil {
			return nil, err
		}
		if seen[list.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateList, list.Name)
		}
		seen[list.Name] = true
		lists = append(lists, list)
	}
	return lists, nil
}

func (e listEntry) toList() (*types.KeywordList, error) {
	name := strings.TrimSpace(e.Name)
	list := &types.KeywordList{
		Name:           name,
		UseForIngest:   e.UseForIngest,
		IngestMessages: e.IngestMessages,
		Locked:         e.Locked,
	}

	for i, k := range e.Keywords {
		attr, err := types.ParseAttributeType(k.Type)
		if err != nil {
			return nil, fmt.Errorf("list %q keyword %d: %w: %q", name, i+1, err, k.Type)
		}
		isLiteral := k.Literal == nil || *k.Literal
		kw := types.NewKeyword(k.Term, isLiteral, k.WholeWord, name, k.Original, attr)
		if err := ValidateKeyword(kw); err != nil {
			return nil, fmt.Errorf("list %q keyword %d: %w", name, i+1, err)
		}
		list.Keywords = append(list.Keywords, kw)
	}

	if err := list.Validate(); err != nil {
		return nil, err
	}
	return list, nil
}

// ValidateKeyword checks that kw is searchable; regex terms must compile
func ValidateKeyword(kw types.Keyword) error {
	if err := kw.Validate(); err != nil {
		return err
	}
	if kw.IsRegex() {
		if _, err := regexp.Compile(kw.SearchTerm()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRegex, err)
		}
	}
	return nil
}

// Marshal encodes keyword lists in the file format read by Parse
func Marshal(lists []*types.KeywordList) ([]byte, error) {
	var f file
	for _, list := range lists {
		entry := listEntry{
			Name:           list.Name,
			UseForIngest:   list.UseForIngest,
			IngestMessages: list.IngestMessages,
			Locked:         list.Locked,
		}
		for _, kw := range list.Keywords {
			k := keywordEntry{
				Term:      kw.SearchTerm(),
				WholeWord: kw.IsWholeWord(),
				Type:      string(kw.AttributeType()),
			}
			if !kw.IsLiteral() {
				literal := false
				k.Literal = &literal
			}
			if kw.OriginalTerm() != kw.SearchTerm() {
				k.Original = kw.OriginalTerm()
			}
			entry.Keywords = append(entry.Keywords, k)
		}
		f.Lists = append(f.Lists, entry)
	}

	data, err := toml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keyword lists: %w", err)
	}
	return data, nil
}

// ForIngest returns the lists flagged for use during ingest
func ForIngest(lists []*types.KeywordList) []*types.KeywordList {
	var out []*types.KeywordList
	for _, list := range lists {
		if list.UseForIngest {
			out = append(out, list)
		}
	}
	return out
}

// Find returns the list with the given name
func Find(lists []*types.KeywordList, name string) (*types.KeywordList, bool) {
	for _, list := range lists {
		if list.Name == name {
			return list, true
		}
	}
	return nil, false
}

// Merge appends extra to base, replacing lists of base that have the same
// name. Locked lists in base are kept.
func Merge(base, extra []*types.KeywordList) []*types.KeywordList {
	out := make([]*types.KeywordList, 0, len(base)+len(extra))
	index := make(map[string]int, len(base))
	for _, list := range base {
		index[list.Name] = len(out)
		out = append(out, list)
	}
	for _, list := range extra {
		if i, ok := index[list.Name]; ok {
			if !out[i].Locked {
				out[i] = list
			}
			continue
		}
		index[list.Name] = len(out)
		out = append(out, list)
	}
	return out
}
