package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/journal"
	"github.com/windguard/edgeprov/internal/pipeline"
	edgetesting "github.com/windguard/edgeprov/internal/testing"
)

type fakeJournalStore struct {
	mu        sync.Mutex
	ensureErr error
	uploadErr error
	uploads   map[string][]byte
}

func (f *fakeJournalStore) EnsureBucket(context.Context) error { return f.ensureErr }

func (f *fakeJournalStore) Key(command, runID string) string {
	return "demo/" + command + "/" + runID + ".jsonl"
}

func (f *fakeJournalStore) Upload(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = append([]byte(nil), data...)
	return nil
}

func useJournalStore(t *testing.T, store journalStore) {
	t.Helper()
	orig := newJournalStore
	t.Cleanup(func() { newJournalStore = orig })
	newJournalStore = func(context.Context, *config.Journal) (journalStore, error) {
		return store, nil
	}
}

func TestSession_UploadsJournal(t *testing.T) {
	store := &fakeJournalStore{}
	useJournalStore(t, store)

	cfg := &config.Demo{Journal: &config.Journal{Bucket: "edgeprov-runs", Prefix: "demo/"}}
	s, err := startSession("deploy-fleet", Options{}, cfg)
	require.NoError(t, err)
	require.NotNil(t, s.journal)

	ctx := edgetesting.TestContext(t)
	steps := []pipeline.Step{{Name: "login-openshift", Run: func(context.Context) error { return nil }}}
	_, runErr := pipeline.NewRunner(s.command, s.stepObservers()...).Run(ctx, steps)
	require.NoError(t, runErr)
	s.finish(ctx, runErr)

	key := "demo/deploy-fleet/" + s.journal.RunID() + ".jsonl"
	require.Contains(t, store.uploads, key)

	entries, err := journal.Read(bytes.NewReader(store.uploads[key]))
	require.NoError(t, err)
	runs := journal.Runs(entries)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Finished)
	assert.Equal(t, []string{"login-openshift"}, runs[0].Completed)
}

func TestSession_UploadFailureIsLogged(t *testing.T) {
	store := &fakeJournalStore{uploadErr: errors.New("access denied")}
	useJournalStore(t, store)

	cfg := &config.Demo{Journal: &config.Journal{Bucket: "edgeprov-runs"}}
	s, err := startSession("wait", Options{}, cfg)
	require.NoError(t, err)

	// finish never fails; the run result stands.
	s.finish(edgetesting.TestContext(t), nil)
	assert.Empty(t, store.uploads)
}

func TestSession_UploadsAfterCancel(t *testing.T) {
	store := &fakeJournalStore{}
	useJournalStore(t, store)

	cfg := &config.Demo{Journal: &config.Journal{Bucket: "edgeprov-runs"}}
	s, err := startSession("wait", Options{}, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(edgetesting.TestContext(t))
	cancel()
	s.finish(ctx, context.Canceled)

	assert.Len(t, store.uploads, 1)
}

func TestSession_NoJournal(t *testing.T) {
	s, err := startSession("wait", Options{}, &config.Demo{})
	require.NoError(t, err)
	assert.Nil(t, s.journal)
	assert.Len(t, s.stepObservers(), 1)
	assert.Len(t, s.pollObservers(), 1)

	s.finish(edgetesting.TestContext(t), nil)
}

func TestSession_JournalFileError(t *testing.T) {
	_, err := startSession("wait", Options{JournalPath: t.TempDir()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open journal")
}

func TestSession_PushesMetrics(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s, err := startSession("build-image", Options{Pushgateway: server.URL}, nil)
	require.NoError(t, err)
	s.finish(edgetesting.TestContext(t), errors.New("podman failed"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/edgeprov/command/build-image", path)
	assert.NotEmpty(t, body)
}
