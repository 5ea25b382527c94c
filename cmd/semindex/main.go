package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/semindex/semindex/internal/mcp"
	"github.com/semindex/semindex/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("semindex MCP server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", store.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", store.DriverName)
		fmt.Printf("Vector Extension: %v\n", store.VectorExtensionAvailable)
		os.Exit(0)
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("semindex v%s starting...", version)

	// Repository root: first argument, env var, or current directory.
	rootDir := os.Getenv("SEMINDEX_ROOT")
	if len(os.Args) > 1 {
		rootDir = os.Args[1]
	}
	if rootDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Failed to resolve working directory: %v", err)
		}
		rootDir = cwd
	}

	server, err := mcp.NewServer(rootDir)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Indexing %s, listening on stdio...", rootDir)
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}
