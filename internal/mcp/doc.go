// Package mcp implements the Model Context Protocol (MCP) server for kwindex.
//
// The server exposes five tools:
//   - index_files: chunk files or directories and store ingest keyword hits
//   - keyword_search: search the indexed text for an ad-hoc keyword
//   - list_hits: list stored hits by source or keyword list
//   - navigate_hits: page through the hits of a keyword in one source
//   - get_status: index statistics, last job and keyword lists
//
// MCP is JSON-RPC 2.0 over stdio. The server is started with:
//
//	kwindex serve
//
// and logs to stderr since stdout carries the protocol.
//
// # Tool: index_files
//
//	Request:
//	{
//	  "name": "index_files",
//	  "arguments": {
//	    "paths": ["/evidence/export"],
//	    "mode": "auto",
//	    "force_reindex": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "jobs": [
//	    {
//	      "job_id": "0b6f6a0e-...",
//	      "documents_indexed": 247,
//	      "documents_skipped": 12,
//	      "chunks_created": 1830,
//	      "hits_stored": 64,
//	      "duration_ms": 35210
//	    }
//	  ]
//	}
//
// # Tool: keyword_search
//
//	Request:
//	{
//	  "name": "keyword_search",
//	  "arguments": {"term": "enger", "literal": true, "limit": 10}
//	}
//
//	Response:
//	{
//	  "results": [
//	    {
//	      "rank": 1,
//	      "source_id": 3,
//	      "document_id": "3_1",
//	      "hit": "passenger",
//	      "snippet": "the «passenger« boarded"
//	    }
//	  ],
//	  "total_results": 1,
//	  "prefiltered": true
//	}
//
// # Tool: navigate_hits
//
// Each (source, keyword) pair keeps a navigation state between calls. Pages
// are the chunks with hits; a page's hit count is fixed when it is first
// rendered. States are dropped whenever index_files runs.
//
//	{"name": "navigate_hits", "arguments": {"source_id": 3, "term": "cat", "whole_word": true, "action": "next_hit"}}
//
// # Error Handling
//
// Handlers return *MCPError values:
//   - -32602: invalid params
//   - -32603: internal error (database, filesystem, etc.)
//   - -32001: source not indexed
//   - -32002: indexing in progress
//   - -32003: navigation move not possible
//   - -32004: empty search term
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "kwindex": {
//	      "command": "/usr/local/bin/kwindex",
//	      "args": ["serve"],
//	      "env": {
//	        "KWINDEX_BUILTIN_LISTS": "*",
//	        "KWINDEX_BIN_TABLE": "/etc/kwindex/bins.json"
//	      }
//	    }
//	  }
//	}
package mcp
