package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/semindex/semindex/internal/agreement"
	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embedder"
	"github.com/semindex/semindex/internal/lang"
	"github.com/semindex/semindex/internal/search"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/internal/syncer"
	"github.com/semindex/semindex/internal/validate"
)

const (
	// ServerName is the MCP server name
	ServerName = "semindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with the engine for one repository root.
type Server struct {
	mcp        *server.MCPServer
	cfg        *config.Config
	rootDir    string
	index      store.Index
	embedder   embedder.Embedder
	syncer     *syncer.Syncer
	searcher   *search.Searcher
	validator  *validate.Validator
	agreements *agreement.Store
}

// NewServer builds the engine for the repository at rootDir and registers
// the MCP tools.
func NewServer(rootDir string) (*Server, error) {
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	stateDir, err := config.EnsureStateDir(rootDir)
	if err != nil {
		return nil, err
	}

	index, err := store.NewSQLiteIndex(filepath.Join(stateDir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	emb, err := embedder.New(embedder.Config{
		Provider:    cfg.Embedder.Provider,
		Model:       cfg.Embedder.Model,
		CacheSize:   cfg.Embedder.CacheSize,
		QueryPrefix: cfg.Embedder.QueryPrefix,
	})
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("configure embedder: %w", err)
	}

	extractor := lang.NewExtractor(lang.Config{
		WindowSize:  cfg.WindowSize,
		TokenBudget: cfg.TokenBudget,
	})

	s := &Server{
		mcp:        server.NewMCPServer(ServerName, ServerVersion),
		cfg:        cfg,
		rootDir:    rootDir,
		index:      index,
		embedder:   emb,
		syncer:     syncer.New(rootDir, stateDir, cfg, extractor, emb, index),
		searcher:   search.NewSearcher(index, emb, cfg),
		validator:  validate.New(emb, cfg),
		agreements: agreement.NewStore(filepath.Join(stateDir, "agreements.jsonl")),
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.embedder.Close()
		_ = s.index.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(syncIndexTool(), s.handleSyncIndex)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(validateRelevanceTool(), s.handleValidateRelevance)
	s.mcp.AddTool(recordAgreementTool(), s.handleRecordAgreement)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
