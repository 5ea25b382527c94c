// Package mcp exposes the index engine as an MCP stdio server with five
// tools: sync_index, search_code, validate_relevance, record_agreement, and
// get_status. The server is bound to one repository root; all derived state
// lives under that repository's .semindex directory.
package mcp
