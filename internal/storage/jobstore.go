package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"listingvideo/internal/domain"
	"listingvideo/internal/infra"
)

const (
	// ArtifactName is the file name of a job's final video inside its directory.
	ArtifactName = "final_output.mp4"
	workDirName  = "work"
)

// JobStore owns the on-disk layout of rendered videos. Every job gets its own
// directory under the root:
//
//	<root>/<jobID>/work/            intermediate assets, removed after publish
//	<root>/<jobID>/final_output.mp4 the published artifact
//
// A job id is registered at most once; once registered the artifact path for
// that id never changes.
type JobStore struct {
	root   string
	logger *infra.Logger

	mu        sync.RWMutex
	artifacts map[string]string
}

// NewJobStore initializes a JobStore rooted at root.
func NewJobStore(root string, logger *infra.Logger) (*JobStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure root: %w", err)
	}
	if logger == nil {
		l := infra.DiscardLogger()
		logger = &l
	}
	return &JobStore{root: root, logger: logger, artifacts: make(map[string]string)}, nil
}

// Root returns the configured root directory.
func (s *JobStore) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

func (s *JobStore) jobDir(id domain.JobID) string {
	return filepath.Join(s.root, id.String())
}

// Create makes the job directory and its scratch area and returns the
// scratch path.
func (s *JobStore) Create(id domain.JobID) (string, error) {
	if id.IsZero() {
		return "", domain.ErrInvalidJobID
	}
	work := filepath.Join(s.jobDir(id), workDirName)
	if err := os.MkdirAll(work, 0o755); err != nil {
		return "", fmt.Errorf("storage: create job dir: %w", err)
	}
	return work, nil
}

// ArtifactPath is where the final video for id is written.
func (s *JobStore) ArtifactPath(id domain.JobID) string {
	return filepath.Join(s.jobDir(id), ArtifactName)
}

// Register records path as the artifact of id. The file must already exist.
func (s *JobStore) Register(id domain.JobID, path string) error {
	if id.IsZero() {
		return domain.ErrInvalidJobID
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("storage: register %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[id.String()]; ok {
		return fmt.Errorf("storage: register %s: %w", id, domain.ErrAlreadyRegistered)
	}
	s.artifacts[id.String()] = path
	return nil
}

// Resolve returns the artifact path for a raw job id. Malformed ids are
// rejected before any filesystem access. Artifacts published by an earlier
// process are found by their conventional location.
func (s *JobStore) Resolve(raw string) (string, error) {
	id, err := domain.ParseJobID(raw)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	path, ok := s.artifacts[id.String()]
	s.mu.RUnlock()
	if ok {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", domain.ErrNotFound
	}

	path = s.ArtifactPath(id)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", domain.ErrNotFound
	}
	return path, nil
}

// ReleaseWorkDir removes the scratch area of a published job.
func (s *JobStore) ReleaseWorkDir(id domain.JobID) {
	if id.IsZero() {
		return
	}
	work := filepath.Join(s.jobDir(id), workDirName)
	if err := os.RemoveAll(work); err != nil {
		s.logger.Warn().Err(err).Str("job_id", id.String()).Msg("storage: release work dir")
	}
}

// Discard removes everything belonging to a failed job.
func (s *JobStore) Discard(id domain.JobID) {
	if id.IsZero() {
		return
	}
	s.mu.Lock()
	delete(s.artifacts, id.String())
	s.mu.Unlock()
	if err := os.RemoveAll(s.jobDir(id)); err != nil {
		s.logger.Warn().Err(err).Str("job_id", id.String()).Msg("storage: discard job dir")
	}
}

// Sweep removes job directories last modified more than maxAge ago and
// returns how many were removed. Entries that are not job directories are
// left alone.
func (s *JobStore) Sweep(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, errors.New("storage: sweep age must be positive")
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("storage: read root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := domain.ParseJobID(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn().Err(err).Str("job_id", id.String()).Msg("storage: stat job dir")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		s.mu.Lock()
		delete(s.artifacts, id.String())
		s.mu.Unlock()
		if err := os.RemoveAll(s.jobDir(id)); err != nil {
			s.logger.Warn().Err(err).Str("job_id", id.String()).Msg("storage: remove expired job")
			continue
		}
		removed++
	}
	return removed, nil
}
