package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/semindex/semindex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeSyncInProgress = -32001 // Another sync is already running
	ErrorCodeInitializing   = -32002 // Embedding model still loading; retry
	ErrorCodeEmptyQuery     = -32003 // Query parameter is empty
)

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// mapEngineError translates retryable engine conditions into their
// dedicated error codes so callers can tell them from hard failures.
func mapEngineError(err error, fallback string) error {
	switch {
	case errors.Is(err, types.ErrSyncInProgress):
		return newMCPError(ErrorCodeSyncInProgress, "sync already in progress", nil)
	case errors.Is(err, types.ErrInitializing):
		return newMCPError(ErrorCodeInitializing, "embedding model initializing, retry shortly", nil)
	default:
		return newMCPError(ErrorCodeInternalError, fallback, map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// handleSyncIndex handles the sync_index tool invocation
func (s *Server) handleSyncIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	force := getBoolDefault(args, "force", false)

	result, err := s.syncer.Sync(ctx, force)
	if err != nil {
		return nil, mapEngineError(err, "sync failed")
	}
	s.searcher.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"added":        result.Added,
		"modified":     result.Modified,
		"deleted":      result.Deleted,
		"files_failed": result.FilesFailed,
		"duration_ms":  result.Duration.Milliseconds(),
	})), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if limit < 0 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	// Keep the index current unless a sync ran within the TTL.
	if err := s.syncer.EnsureFresh(ctx); err != nil {
		return nil, mapEngineError(err, "pre-query sync failed")
	}

	result, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, mapEngineError(err, "search failed")
	}
	if limit > 0 && len(result.Hits) > limit {
		result.Hits = result.Hits[:limit]
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "encode result", nil)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleValidateRelevance handles the validate_relevance tool invocation
func (s *Server) handleValidateRelevance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	nlTerm, ok := args["nl_term"].(string)
	if !ok || nlTerm == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "nl_term parameter is required", map[string]interface{}{
			"param":  "nl_term",
			"reason": "missing or empty",
		})
	}

	rawCandidates, ok := args["candidates"].([]interface{})
	if !ok || len(rawCandidates) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "candidates parameter is required", map[string]interface{}{
			"param":  "candidates",
			"reason": "missing or empty",
		})
	}
	candidates := make([]string, 0, len(rawCandidates))
	for _, c := range rawCandidates {
		candidate, ok := c.(string)
		if !ok || candidate == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, "candidates must be non-empty strings", nil)
		}
		candidates = append(candidates, candidate)
	}

	verdicts, err := s.validator.Validate(ctx, nlTerm, candidates)
	if err != nil {
		return nil, mapEngineError(err, "validation failed")
	}

	data, err := json.MarshalIndent(verdicts, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "encode verdicts", nil)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleRecordAgreement handles the record_agreement tool invocation
func (s *Server) handleRecordAgreement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	nlTerm, _ := args["nl_term"].(string)
	symbol, _ := args["symbol"].(string)
	if nlTerm == "" || symbol == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "nl_term and symbol parameters are required", nil)
	}
	evidence, _ := args["evidence"].(string)
	sessionID, _ := args["session_id"].(string)

	// The recorded similarity is the engine's own score for the confirmed
	// pair, under the same normalization used for search.
	verdicts, err := s.validator.Validate(ctx, nlTerm, []string{symbol})
	if err != nil {
		return nil, mapEngineError(err, "score agreement")
	}

	if _, err := s.agreements.Record(nlTerm, symbol, verdicts[0].Score, evidence, sessionID); err != nil {
		return nil, mapEngineError(err, "record agreement")
	}

	folded, err := s.agreements.FoldIntoCurated(ctx, s.embedder, s.index)
	if err != nil {
		return nil, mapEngineError(err, "fold agreements into curated collection")
	}
	s.searcher.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"recorded": true,
		"nl_term":  nlTerm,
		"symbol":   symbol,
		"curated":  folded,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	curated, err := s.index.Count(ctx, types.CollectionCurated)
	if err != nil {
		return nil, mapEngineError(err, "count curated collection")
	}
	raw, err := s.index.Count(ctx, types.CollectionRaw)
	if err != nil {
		return nil, mapEngineError(err, "count raw collection")
	}

	status := map[string]interface{}{
		"root":            s.rootDir,
		"curated_records": curated,
		"raw_records":     raw,
		"tracked_files":   s.syncer.FileCount(),
		"provider":        s.embedder.Provider(),
		"model":           s.embedder.Model(),
	}
	if last := s.syncer.LastSync(); !last.IsZero() {
		status["last_sync"] = last.Format("2006-01-02T15:04:05Z07:00")
	}

	return mcp.NewToolResultText(formatJSON(status)), nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	return defaultValue
}
