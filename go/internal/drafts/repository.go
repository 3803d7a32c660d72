package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

// StorageKey names the persisted collection.
const StorageKey = "emp_entries_v1"

// FileStore persists the whole draft collection as one JSON document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore keeps drafts in dir/emp_entries_v1.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, StorageKey+".json")}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the collection. A missing or unreadable document yields an empty collection.
func (s *FileStore) Load(ctx context.Context) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() ([]models.Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read drafts: %w", err)
	}
	if len(data) == 0 {
		return []models.Entry{}, nil
	}

	var entries []models.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405.000000000Z"))
		if rerr := os.Rename(s.path, aside); rerr != nil {
			return nil, fmt.Errorf("draft collection unreadable and could not be moved aside: %w", errors.Join(err, rerr))
		}
		log.Warn().Err(err).Str("path", s.path).Str("moved_to", aside).Msg("draft collection unreadable, starting empty")
		return []models.Entry{}, nil
	}
	return entries, nil
}

// Replace writes the whole collection atomically.
func (s *FileStore) Replace(ctx context.Context, entries []models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(entries)
}

// Update runs fn on the current collection and persists the result under one lock.
func (s *FileStore) Update(ctx context.Context, fn func([]models.Entry) ([]models.Entry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	next, err := fn(entries)
	if err != nil {
		return err
	}
	return s.write(next)
}

func (s *FileStore) write(entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal drafts: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create drafts dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), StorageKey+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write drafts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write drafts: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace drafts: %w", err)
	}
	return nil
}
