package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// syncIndexTool returns the tool definition for sync_index
func syncIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sync_index",
		Description: "Incrementally re-index the repository; only changed files are re-embedded",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, ignore fingerprints and rebuild the whole raw collection",
					"default":     false,
				},
			},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Semantic search over the repository. Confirmed associations answer directly; otherwise ranked code chunks are returned as hypotheses that require independent confirmation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hits to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// validateRelevanceTool returns the tool definition for validate_relevance
func validateRelevanceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_relevance",
		Description: "Score candidate symbols against a natural-language term. Verdicts are approved_fact, approved_flagged (needs corroboration), or rejected (with alternative search actions)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"nl_term": map[string]interface{}{
					"type":        "string",
					"description": "Natural language term to validate",
				},
				"candidates": map[string]interface{}{
					"type":        "array",
					"description": "Candidate symbol names",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"nl_term", "candidates"},
		},
	}
}

// recordAgreementTool returns the tool definition for record_agreement
func recordAgreementTool() mcp.Tool {
	return mcp.Tool{
		Name:        "record_agreement",
		Description: "Record a confirmed natural-language-to-symbol association so future searches answer it directly. Call only after the association has been independently confirmed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"nl_term": map[string]interface{}{
					"type":        "string",
					"description": "Natural language term",
				},
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Confirmed code symbol",
				},
				"evidence": map[string]interface{}{
					"type":        "string",
					"description": "Supporting evidence for the association",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the session that confirmed the association",
				},
			},
			Required: []string{"nl_term", "symbol"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics: collection sizes, tracked files, embedding model, last sync",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
