// Package batch converts directories of track session notes in one go,
// writing plan files next to an output directory and optionally submitting
// each note to a server or database. A SQLite state file remembers what was
// already converted.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/validate"
)

// Source is the plan source recorded for notes submitted by the runner.
const Source = "batch"

// Stats tracks conversion progress.
type Stats struct {
	FilesTotal     int
	FilesConverted int
	FilesSkipped   int
	FilesErrored   int

	PlansSubmitted  int
	SetsExtracted   int
	PlansWithIssues int
}

// Options configure a Runner.
type Options struct {
	// OutDir receives one plan file per note. Empty disables local output.
	OutDir string
	// Format is "json" or "yaml".
	Format string
	// DryRun converts but neither writes, submits nor records state.
	DryRun bool
	// Force converts files even when the state DB says they are unchanged.
	Force bool
}

// Runner walks a note file or directory, converts each .txt note and hands
// the result to its outputs.
type Runner struct {
	parser *notes.Parser
	sink   Sink
	state  *StateDB
	opts   Options
	log    *slog.Logger
	stats  Stats
}

// New creates a Runner. sink and state may be nil.
func New(parser *notes.Parser, sink Sink, state *StateDB, opts Options, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Format == "" {
		opts.Format = models.FormatJSON
	}
	return &Runner{parser: parser, sink: sink, state: state, opts: opts, log: log}
}

// Run converts every note under path. Per-file failures are logged and counted;
// only a failure to list path or a cancelled context stops the run.
func (r *Runner) Run(ctx context.Context, path string) (*Stats, error) {
	files, root, err := collectNotes(path)
	if err != nil {
		return &r.stats, err
	}

	if r.opts.OutDir != "" && !r.opts.DryRun {
		if err := os.MkdirAll(r.opts.OutDir, 0o755); err != nil {
			return &r.stats, fmt.Errorf("creating output dir: %w", err)
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &r.stats, err
		}
		r.stats.FilesTotal++
		rel, err := filepath.Rel(root, f)
		if err != nil {
			rel = filepath.Base(f)
		}
		if err := r.processFile(ctx, f, rel); err != nil {
			r.log.Warn("conversion failed", "file", rel, "error", err)
			r.stats.FilesErrored++
		}
	}
	return &r.stats, nil
}

func (r *Runner) processFile(ctx context.Context, path, rel string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	if r.state != nil && !r.opts.Force {
		done, err := r.state.IsConverted(rel, info.Size(), hash)
		if err != nil {
			return err
		}
		if done {
			r.stats.FilesSkipped++
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	text := string(data)

	plan := r.parser.Parse(text)
	issues := validate.Struct(plan)
	_, _, sets := plan.Counts()
	r.stats.SetsExtracted += sets
	if len(issues) > 0 {
		r.stats.PlansWithIssues++
		r.log.Warn("plan has issues", "file", rel, "issues", strings.Join(issues, "; "))
	}

	if r.opts.DryRun {
		r.log.Info("dry-run: would convert", "file", rel, "sets", sets)
		r.stats.FilesConverted++
		return nil
	}

	if r.opts.OutDir != "" {
		if err := r.writePlan(rel, plan); err != nil {
			return err
		}
	}

	var planID string
	if r.sink != nil {
		result, err := r.sink.Submit(ctx, text, Source)
		if err != nil {
			return err
		}
		planID = result.PlanID
		r.stats.PlansSubmitted++
	}

	if r.state != nil {
		if err := r.state.MarkConverted(rel, info.Size(), hash, planID); err != nil {
			r.log.Warn("failed to mark converted", "file", rel, "error", err)
		}
	}
	r.stats.FilesConverted++
	r.log.Info("converted", "file", rel, "sets", sets, "plan_id", planID)
	return nil
}

// writePlan writes plan to OutDir under the note's relative path with its
// extension replaced by the output format.
func (r *Runner) writePlan(rel string, plan models.Plan) error {
	name := strings.TrimSuffix(rel, filepath.Ext(rel)) + "." + r.opts.Format
	dest := filepath.Join(r.opts.OutDir, name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if err := models.EncodePlan(f, plan, r.opts.Format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// collectNotes returns the .txt files under path in lexical order and the
// root relative paths are computed from. A single file is returned as-is.
func collectNotes(path string) ([]string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, filepath.Dir(path), nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isNote(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("walking %s: %w", path, err)
	}
	return files, path, nil
}
