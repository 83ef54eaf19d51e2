package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_API_KEY"), "API key for the LiftLog server (default $LIFTLOG_API_KEY)")
	user := flag.String("user", os.Getenv("LIFTLOG_USER"), "user ID to act for (default $LIFTLOG_USER)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-mcp", Version)
		return
	}

	if *serverURL == "" || *user == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -server <URL> -user <ID> [-api-key KEY]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("liftlog-mcp starting", "version", Version, "server", *serverURL, "user", *user)

	s := mcp.New(mcp.NewHTTPClient(*serverURL, *apiKey), Version, log)
	userID := *user
	if err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, userID)
	})); err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}
