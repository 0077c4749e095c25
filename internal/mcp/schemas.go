package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// keywordProperties are the keyword fields shared by keyword_search and
// navigate_hits
func keywordProperties() map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			"type":        "string",
			"description": "Search term: a literal string or a regular expression",
		},
		"literal": map[string]interface{}{
			"type":        "boolean",
			"description": "If false, term is a regular expression",
			"default":     true,
		},
		"whole_word": map[string]interface{}{
			"type":        "boolean",
			"description": "If true, a literal term only matches whole words",
			"default":     false,
		},
		"type": map[string]interface{}{
			"type":        "string",
			"description": "Attribute type deciding how hits are validated",
			"enum":        []string{"", "phone", "ip", "email", "url", "ccn"},
			"default":     "",
		},
	}
}

// indexFilesTool returns the tool definition for index_files
func indexFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_files",
		Description: "Chunk files or directories into the index and record the hits of the ingest keyword lists",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"paths": map[string]interface{}{
					"type":        "array",
					"description": "Absolute paths of files or directories to index",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "How files are turned into text; auto sniffs each file",
					"enum":        []string{"auto", "text", "strings", "utf16le", "utf16be"},
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index files even when their hash is unchanged",
					"default":     false,
				},
				"include_hidden": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, descend into dot directories",
					"default":     false,
				},
			},
			Required: []string{"paths"},
		},
	}
}

// keywordSearchTool returns the tool definition for keyword_search
func keywordSearchTool() mcp.Tool {
	props := keywordProperties()
	props["source_ids"] = map[string]interface{}{
		"type":        "array",
		"description": "Restrict the search to these sources",
		"items": map[string]interface{}{
			"type": "integer",
		},
	}
	props["limit"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of results to return (1-1000)",
		"default":     20,
		"minimum":     1,
		"maximum":     1000,
	}

	return mcp.Tool{
		Name:        "keyword_search",
		Description: "Search the indexed text for an ad-hoc keyword, literal or regular expression",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"term"},
		},
	}
}

// listHitsTool returns the tool definition for list_hits
func listHitsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_hits",
		Description: "List the keyword hits stored during ingest, by source or by keyword list",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source_id": map[string]interface{}{
					"type":        "integer",
					"description": "Source whose hits are listed",
				},
				"list_name": map[string]interface{}{
					"type":        "string",
					"description": "Keyword list whose hits are listed",
				},
				"term": map[string]interface{}{
					"type":        "string",
					"description": "Keyword of list_name as written in the list; empty lists the whole list",
				},
				"include_attributes": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include account attributes of card number hits",
					"default":     true,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hits to return",
					"default":     100,
					"minimum":     1,
				},
			},
		},
	}
}

// navigateHitsTool returns the tool definition for navigate_hits
func navigateHitsTool() mcp.Tool {
	props := keywordProperties()
	props["source_id"] = map[string]interface{}{
		"type":        "integer",
		"description": "Source to page through",
	}
	props["action"] = map[string]interface{}{
		"type":        "string",
		"description": "Move to make before reporting the position",
		"enum":        []string{"current", "next_page", "previous_page", "next_hit", "previous_hit", "reset"},
		"default":     "current",
	}
	props["render"] = map[string]interface{}{
		"type":        "boolean",
		"description": "If true, return the current page as HTML with numbered hit anchors",
		"default":     true,
	}

	return mcp.Tool{
		Name:        "navigate_hits",
		Description: "Page through the hits of a keyword in one source, one chunk per page",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"source_id", "term"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics, the last ingest job and the configured keyword lists",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
