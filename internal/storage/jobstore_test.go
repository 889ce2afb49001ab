package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingvideo/internal/domain"
)

func newStore(t *testing.T) *JobStore {
	t.Helper()
	store, err := NewJobStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func publish(t *testing.T, store *JobStore, id domain.JobID) string {
	t.Helper()
	_, err := store.Create(id)
	require.NoError(t, err)
	path := store.ArtifactPath(id)
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0o644))
	require.NoError(t, store.Register(id, path))
	return path
}

func TestNewJobStoreRequiresRoot(t *testing.T) {
	_, err := NewJobStore("  ", nil)
	assert.Error(t, err)
}

func TestCreateLayout(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()

	work, err := store.Create(id)
	require.NoError(t, err)
	assert.DirExists(t, work)
	assert.Equal(t, filepath.Join(store.Root(), id.String(), "work"), work)
	assert.Equal(t, filepath.Join(store.Root(), id.String(), ArtifactName), store.ArtifactPath(id))
}

func TestRegisterAndResolve(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()
	path := publish(t, store, id)

	got, err := store.Resolve(id.String())
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestRegisterIsWriteOnce(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()
	path := publish(t, store, id)

	err := store.Register(id, path)
	assert.True(t, errors.Is(err, domain.ErrAlreadyRegistered))
}

func TestRegisterRequiresFile(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()
	err := store.Register(id, filepath.Join(store.Root(), "missing.mp4"))
	assert.Error(t, err)

	_, err = store.Resolve(id.String())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResolveRejectsMalformedIDs(t *testing.T) {
	store := newStore(t)
	for _, raw := range []string{"", "../etc/passwd", "a/b", "has space", "..", "%2e%2e"} {
		_, err := store.Resolve(raw)
		assert.True(t, errors.Is(err, domain.ErrInvalidJobID), "raw %q", raw)
	}
}

func TestResolveUnknownID(t *testing.T) {
	store := newStore(t)
	_, err := store.Resolve("nonexistent-id")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResolveFallsBackToDisk(t *testing.T) {
	root := t.TempDir()
	first, err := NewJobStore(root, nil)
	require.NoError(t, err)
	id := domain.NewJobID()
	path := publish(t, first, id)

	restarted, err := NewJobStore(root, nil)
	require.NoError(t, err)
	got, err := restarted.Resolve(id.String())
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestResolveIgnoresInProgressJob(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()
	_, err := store.Create(id)
	require.NoError(t, err)

	_, err = store.Resolve(id.String())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReleaseWorkDirKeepsArtifact(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()
	path := publish(t, store, id)

	store.ReleaseWorkDir(id)
	assert.NoDirExists(t, filepath.Join(store.Root(), id.String(), "work"))
	assert.FileExists(t, path)
}

func TestDiscardRemovesJob(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()
	publish(t, store, id)

	store.Discard(id)
	assert.NoDirExists(t, filepath.Join(store.Root(), id.String()))
	_, err := store.Resolve(id.String())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSweepRemovesExpiredJobs(t *testing.T) {
	store := newStore(t)
	old := domain.NewJobID()
	fresh := domain.NewJobID()
	publish(t, store, old)
	publish(t, store, fresh)

	stranger := filepath.Join(store.Root(), "not a job")
	require.NoError(t, os.MkdirAll(stranger, 0o755))

	past := time.Now().Add(-2 * time.Hour)
	for _, dir := range []string{filepath.Join(store.Root(), old.String()), stranger} {
		require.NoError(t, os.Chtimes(dir, past, past))
	}

	removed, err := store.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Resolve(old.String())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.Resolve(fresh.String())
	assert.NoError(t, err)
	assert.DirExists(t, stranger)
}

func TestSweepRejectsNonPositiveAge(t *testing.T) {
	_, err := newStore(t).Sweep(0)
	assert.Error(t, err)
}

func TestConcurrentRegisterSingleWinner(t *testing.T) {
	store := newStore(t)
	id := domain.NewJobID()
	_, err := store.Create(id)
	require.NoError(t, err)
	path := store.ArtifactPath(id)
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0o644))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Register(id, path) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestStartReaper(t *testing.T) {
	store := newStore(t)

	_, err := store.StartReaper("not a schedule", time.Hour)
	assert.Error(t, err)
	_, err = store.StartReaper("@every 1h", 0)
	assert.Error(t, err)

	reaper, err := store.StartReaper("@every 1h", time.Hour)
	require.NoError(t, err)
	reaper.Stop()
}
