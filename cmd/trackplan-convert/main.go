package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/trackplan/internal/batch"
	"github.com/claude/trackplan/internal/config"
	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/claude/trackplan/internal/models"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	notesPath := flag.String("path", "", "note file or directory of .txt notes")
	outDir := flag.String("out", "", "directory for converted plans (omit to skip local output)")
	format := flag.String("format", "json", "output format: json or yaml")
	serverURL := flag.String("server", "", "trackplan server URL to submit notes to (e.g. https://trackplan.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("TRACKPLAN_AUTH_API_KEY"), "API key for -server")
	configPath := flag.String("config", "", "optional config file for extraction defaults and logging")
	stateDir := flag.String("state-dir", "", "state directory (default ~/.trackplan-convert)")
	dryRun := flag.Bool("dry-run", false, "parse and convert but don't write or send anything")
	force := flag.Bool("force", false, "convert files even if unchanged since the last run")
	watch := flag.Bool("watch", false, "keep running and convert notes as they are written (directory -path only)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trackplan-convert", Version)
		return
	}

	if *notesPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: trackplan-convert -path <file|dir> [-out dir] [-format json|yaml] [-server URL -api-key K] [-dry-run] [-force] [-watch]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmtName, err := models.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *outDir == "" && *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -out or -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	defaults := notes.Defaults{}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		log = cfg.Log.NewLogger(os.Stdout)
		defaults = cfg.Extraction.Defaults()
	}

	// Open state database
	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".trackplan-convert")
	}
	state, err := batch.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var sink batch.Sink
	if *serverURL != "" {
		sink = batch.NewClient(*serverURL, *apiKey)
	}

	if *dryRun {
		log.Info("DRY RUN mode: notes will be converted but nothing is written or sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	parser := notes.NewParser(defaults, log.With("component", "parser"))
	runner := batch.New(parser, sink, state, batch.Options{
		OutDir: *outDir,
		Format: fmtName,
		DryRun: *dryRun,
		Force:  *force,
	}, log)

	var stats *batch.Stats
	if *watch {
		stats, err = runner.Watch(ctx, *notesPath)
	} else {
		stats, err = runner.Run(ctx, *notesPath)
	}
	printStats(stats)
	if err != nil {
		log.Error("conversion failed", "error", err)
		os.Exit(1)
	}
	if stats.FilesErrored > 0 {
		os.Exit(1)
	}
	log.Info("conversion complete")
}

func printStats(stats *batch.Stats) {
	fmt.Println()
	fmt.Println("=== Conversion Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files converted:  %d\n", stats.FilesConverted)
	fmt.Printf("  Files skipped:    %d (unchanged)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sets extracted:   %d\n", stats.SetsExtracted)
	fmt.Printf("  Plans w/ issues:  %d\n", stats.PlansWithIssues)
	fmt.Printf("  Plans submitted:  %d\n", stats.PlansSubmitted)
	fmt.Println()
}
