package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/kwindex/internal/searcher"
	"github.com/dshills/kwindex/pkg/types"
)

var (
	searchRegex     bool
	searchWholeWord bool
	searchType      string
	searchLimit     int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search the indexed chunks for a keyword",
	Long: `Search every indexed chunk for an ad-hoc keyword. The term is a literal
string unless --regex is set. Each distinct hit text is reported once per
source.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVarP(&searchRegex, "regex", "r", false, "treat the term as a regular expression")
	searchCmd.Flags().BoolVarP(&searchWholeWord, "whole-word", "w", false, "match whole words only")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "attribute type: phone, ip, email, url, ccn")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", searcher.DefaultLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchHit struct {
	Rank     int    `json:"rank"`
	SourceID int64  `json:"source_id"`
	Path     string `json:"path"`
	ChunkID  int    `json:"chunk_id"`
	HitText  string `json:"hit_text"`
	Snippet  string `json:"snippet,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	attr, err := types.ParseAttributeType(searchType)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	s := searcher.NewSearcher(store, cfg.MatcherConfig(),
		searcher.WithLogger(newLogger(cfg)),
		searcher.WithWorkers(cfg.IndexerConfig().Workers))

	ctx := cmd.Context()
	resp, err := s.Search(ctx, searcher.Request{
		Term:      args[0],
		Literal:   !searchRegex,
		WholeWord: searchWholeWord,
		AttrType:  attr,
		Limit:     searchLimit,
	})
	if err != nil {
		return err
	}

	paths := make(map[int64]string)
	hits := make([]searchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		id := r.Hit.Source.ID
		if _, ok := paths[id]; !ok {
			paths[id] = fmt.Sprintf("#%d", id)
			if src, err := store.GetSource(ctx, id); err == nil {
				paths[id] = src.Path
			}
		}
		hits = append(hits, searchHit{
			Rank:     r.Rank,
			SourceID: id,
			Path:     paths[id],
			ChunkID:  r.Hit.ChunkID,
			HitText:  r.Hit.Text,
			Snippet:  r.Hit.Snippet,
		})
	}

	if searchJSON {
		data, err := json.MarshalIndent(map[string]interface{}{
			"results":        hits,
			"total_results":  resp.TotalResults,
			"sources":        resp.Sources,
			"chunks_scanned": resp.ChunksScanned,
			"duration_ms":    resp.Duration.Milliseconds(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(hits) == 0 {
		cmd.Println("No hits found.")
		return nil
	}
	for _, h := range hits {
		cmd.Printf("%d. %s:%d %s\n", h.Rank, h.Path, h.ChunkID, h.HitText)
		if h.Snippet != "" {
			cmd.Printf("   %s\n", h.Snippet)
		}
	}
	cmd.Printf("%d of %d hits\n", len(hits), resp.TotalResults)
	return nil
}
