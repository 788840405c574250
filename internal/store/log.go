package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gtmscore/gtmscore/pkg/models"
)

// FileStore persists submissions as an append-only JSON-lines log. Appends
// are serialized behind a mutex so concurrent submissions never interleave
// partial records. There is no update or delete path.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// Config represents submission store configuration.
type Config struct {
	Path string `yaml:"path" json:"path"`
}

// DefaultConfig returns default store configuration.
func DefaultConfig() Config {
	return Config{Path: "data/submissions.log"}
}

// NewFileStore creates the log file's directory if needed and verifies the
// file is writable.
func NewFileStore(cfg Config) (*FileStore, error) {
	if cfg.Path == "" {
		cfg = DefaultConfig()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create submission log directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission log %s: %w", cfg.Path, err)
	}
	f.Close()

	return &FileStore{path: cfg.Path}, nil
}

// Append writes one submission record to the end of the log.
func (s *FileStore) Append(ctx context.Context, sub models.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission %s: %w", sub.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open submission log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append submission %s: %w", sub.ID, err)
	}
	return nil
}

// List scans the log and returns submissions matching the filter, oldest
// first. Limit/offset apply after filtering.
func (s *FileStore) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	subs, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Submission, 0, len(subs))
	for _, sub := range subs {
		if filter.Cohort != "" && sub.Cohort != filter.Cohort {
			continue
		}
		if filter.Sector != "" && sub.Sector != filter.Sector {
			continue
		}
		matched = append(matched, sub)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []models.Submission{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Get returns the submission with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (models.Submission, error) {
	subs, err := s.scan(ctx)
	if err != nil {
		return models.Submission{}, err
	}
	for _, sub := range subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return models.Submission{}, fmt.Errorf("submission %s not found", id)
}

// Ping reports whether the log file is reachable.
func (s *FileStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.path)
	return err
}

// scan reads every record in the log. Lines that fail to decode are skipped
// rather than failing the whole read; a torn final line from a crashed
// writer should not make the log unreadable.
func (s *FileStore) scan(ctx context.Context) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Submission{}, nil
		}
		return nil, fmt.Errorf("failed to open submission log: %w", err)
	}
	defer f.Close()

	subs := make([]models.Submission, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var sub models.Submission
		if err := json.Unmarshal(line, &sub); err != nil {
			continue
		}
		subs = append(subs, sub)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan submission log: %w", err)
	}
	return subs, nil
}
