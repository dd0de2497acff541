package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/claude/trackplan/internal/batch"
	"github.com/claude/trackplan/internal/config"
	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/claude/trackplan/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	notesPath := flag.String("path", "", "note file or directory of .txt notes (required)")
	login := flag.String("user", "local", "login of the user the plans are stored for")
	stateDir := flag.String("state-dir", "", "optional state directory to skip unchanged files")
	migrationsPath := flag.String("migrations", "migrations", "path to migration files")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	if *notesPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: trackplan-import -config config.yaml -path <file|dir> [-user login] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Log.NewLogger(os.Stdout)

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, *migrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	userID, err := db.GetOrCreateUser(ctx, *login, *login)
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	var state *batch.StateDB
	if *stateDir != "" {
		state, err = batch.OpenStateDB(*stateDir)
		if err != nil {
			log.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	// Run import
	parser := notes.NewParser(cfg.Extraction.Defaults(), log.With("component", "parser"))
	sink := batch.ProviderSink{Provider: notes.NewProvider(parser, db, log), UserID: userID}
	runner := batch.New(parser, sink, state, batch.Options{DryRun: *dryRun}, log)

	stats, err := runner.Run(ctx, *notesPath)
	printStats(stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete", "user_id", userID)
}

func printStats(stats *batch.Stats) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files imported:   %d\n", stats.PlansSubmitted)
	fmt.Printf("  Files skipped:    %d (unchanged)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Printf("  Sets extracted:   %d\n", stats.SetsExtracted)
	fmt.Printf("  Plans w/ issues:  %d\n", stats.PlansWithIssues)
	fmt.Println()
}
