package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/journal"
)

// journalReader is the part of journal.Store the journal commands use.
type journalReader interface {
	List(ctx context.Context, command string) ([]string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

var newJournalReader = func(ctx context.Context, cfg *config.Journal) (journalReader, error) {
	return journal.NewStore(ctx, cfg)
}

// JournalShow prints the runs recorded in a journal. source is a local file
// unless remote is set, in which case it is an object key in the configured
// bucket.
func JournalShow(ctx context.Context, opts Options, source string, remote bool) error {
	var r io.Reader
	if remote {
		store, err := journalStoreFromConfig(ctx, opts)
		if err != nil {
			return err
		}
		data, err := store.Fetch(ctx, source)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	} else {
		f, err := os.Open(source)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer f.Close()
		r = f
	}

	entries, err := journal.Read(r)
	if err != nil {
		return err
	}
	runs := journal.Runs(entries)
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		printRun(run)
	}
	return nil
}

// JournalList prints the journals stored in the configured bucket.
func JournalList(ctx context.Context, opts Options, command string) error {
	store, err := journalStoreFromConfig(ctx, opts)
	if err != nil {
		return err
	}
	keys, err := store.List(ctx, command)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(stdout, "No journals stored.")
		return nil
	}
	for _, key := range keys {
		fmt.Fprintln(stdout, key)
	}
	return nil
}

func journalStoreFromConfig(ctx context.Context, opts Options) (journalReader, error) {
	cfg, err := config.Load(opts.configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Require(config.SectionJournal); err != nil {
		return nil, err
	}
	return newJournalReader(ctx, cfg.Journal)
}

func printRun(run *journal.Run) {
	result := run.Result
	if !run.Finished {
		result = "Interrupted"
	}
	fmt.Fprintf(stdout, "%s  %s  %s  %s\n", run.Started.Local().Format(time.DateTime), run.Command, run.ID, result)
	if run.Error != "" {
		fmt.Fprintf(stdout, "  error: %s\n", run.Error)
	}
	if len(run.Completed) > 0 {
		fmt.Fprintf(stdout, "  completed: %s\n", strings.Join(run.Completed, ", "))
	}
	if len(run.OptionalFailures) > 0 {
		fmt.Fprintf(stdout, "  optional failures: %s\n", strings.Join(run.OptionalFailures, ", "))
	}
	if run.Failed != "" {
		fmt.Fprintf(stdout, "  failed: %s\n", run.Failed)
	}
	if run.Running != "" {
		fmt.Fprintf(stdout, "  running when interrupted: %s\n", run.Running)
	}
	for _, ref := range slices.Sorted(maps.Keys(run.Outcomes)) {
		fmt.Fprintf(stdout, "  %s: %s\n", ref, run.Outcomes[ref])
	}
	for _, p := range run.Patches {
		fmt.Fprintf(stdout, "  patch %s: %s\n", p.Resource, p.Status)
	}
}
