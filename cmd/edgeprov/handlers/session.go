package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/journal"
	"github.com/windguard/edgeprov/internal/metrics"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
	"github.com/windguard/edgeprov/internal/resource"
	"github.com/windguard/edgeprov/internal/ui/tui"
)

const finishTimeout = 30 * time.Second

// journalStore is the part of journal.Store a session uses.
type journalStore interface {
	EnsureBucket(ctx context.Context) error
	Key(command, runID string) string
	Upload(ctx context.Context, key string, data []byte) error
}

var newJournalStore = func(ctx context.Context, cfg *config.Journal) (journalStore, error) {
	return journal.NewStore(ctx, cfg)
}

// session is the bookkeeping of one command run: metrics, the journal and
// the live view, if any.
type session struct {
	command string
	opts    Options
	started time.Time

	metrics  *metrics.Recorder
	journal  *journal.Journal
	file     *os.File
	upload   *bytes.Buffer
	uploadTo *config.Journal

	bridge *tui.Bridge
}

func startSession(command string, opts Options, cfg *config.Demo) (*session, error) {
	s := &session{
		command: command,
		opts:    opts,
		started: time.Now(),
		metrics: metrics.NewRecorder(),
	}

	var writers []io.Writer
	if opts.JournalPath != "" {
		f, err := os.OpenFile(opts.JournalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal %s: %w", opts.JournalPath, err)
		}
		s.file = f
		writers = append(writers, f)
	}
	if cfg != nil && cfg.Journal != nil && cfg.Journal.Bucket != "" {
		s.upload = &bytes.Buffer{}
		s.uploadTo = cfg.Journal
		writers = append(writers, s.upload)
	}
	if len(writers) > 0 {
		s.journal = journal.New(io.MultiWriter(writers...), command)
	}
	return s, nil
}

func (s *session) stepObservers() []pipeline.Observer {
	obs := []pipeline.Observer{s.metrics}
	if s.journal != nil {
		obs = append(obs, s.journal)
	}
	if s.bridge != nil {
		obs = append(obs, s.bridge)
	}
	return obs
}

func (s *session) pollObservers() []convergence.Observer {
	obs := []convergence.Observer{s.metrics.ObservePoll}
	if s.journal != nil {
		obs = append(obs, s.journal.ObservePoll)
	}
	if s.bridge != nil {
		obs = append(obs, s.bridge.ObservePoll)
	}
	return obs
}

func (s *session) recordPatch(ref resource.Ref, change patcher.Change, err error) {
	s.metrics.RecordPatch(change, err)
	if s.journal != nil {
		s.journal.RecordPatch(ref, change, err)
	}
	if s.bridge != nil {
		s.bridge.RecordPatch(ref, change, err)
	}
}

// finish records the run result, then stores the journal and pushes
// metrics. Failures there are logged and never change the run result.
func (s *session) finish(ctx context.Context, runErr error) {
	logger := log.FromContext(ctx)
	s.metrics.RecordRun(s.command, runErr)

	// Storing results must still work after Ctrl+C.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	if s.journal != nil {
		if err := s.journal.Finish(runErr); err != nil {
			logger.Error(err, "Failed to write journal")
		}
		if s.file != nil {
			if err := s.file.Close(); err != nil {
				logger.Error(err, "Failed to close journal", "path", s.opts.JournalPath)
			}
		}
		if s.upload != nil {
			if err := s.uploadJournal(ctx); err != nil {
				logger.Error(err, "Failed to upload journal", "bucket", s.uploadTo.Bucket)
			}
		}
	}

	if s.opts.Pushgateway != "" {
		if err := s.metrics.Push(ctx, s.opts.Pushgateway, map[string]string{"command": s.command}); err != nil {
			logger.Error(err, "Failed to push metrics")
		}
	}
}

func (s *session) uploadJournal(ctx context.Context) error {
	store, err := newJournalStore(ctx, s.uploadTo)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}
	key := store.Key(s.command, s.journal.RunID())
	if err := store.Upload(ctx, key, s.upload.Bytes()); err != nil {
		return err
	}
	log.FromContext(ctx).Info("Journal uploaded", "bucket", s.uploadTo.Bucket, "key", key)
	return nil
}
