package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/trackplan/internal/config"
	"github.com/claude/trackplan/internal/ingest/notes"
	trackmcp "github.com/claude/trackplan/internal/mcp"
	"github.com/claude/trackplan/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "config file for direct database access")
	serverURL := flag.String("server", "", "trackplan server URL for remote mode (e.g. https://trackplan.tail1234.ts.net)")
	flag.Parse()

	if (*configPath == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: trackplan-mcp (-config config.yaml | -server URL)\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var (
		ds       trackmcp.DataSource
		provider *notes.Provider
	)
	if *serverURL != "" {
		ds = trackmcp.NewHTTPClient(*serverURL)
		provider = notes.NewProvider(notes.NewParser(notes.Defaults{}, log), nil, log)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		log = cfg.Log.NewLogger(os.Stderr)

		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ds = db
		provider = notes.NewProvider(notes.NewParser(cfg.Extraction.Defaults(), log), db, log)
	}

	s := trackmcp.New(ds, provider, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
