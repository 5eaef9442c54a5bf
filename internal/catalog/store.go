package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/canti/internal/apperr"
	"github.com/starford/canti/internal/models"
	"github.com/starford/canti/internal/storage"
)

// Store persists the catalog document as a single JSON file.
// Writes are serialised and atomic; reads never fail.
type Store struct {
	files  storage.Provider
	name   string
	logger *slog.Logger
	now    func() time.Time

	mu sync.RWMutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for the default date label.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store for the file name inside files.
func NewStore(files storage.Provider, name string, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{files: files, name: name, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted document, or the default document when the
// file is absent or unreadable.
func (s *Store) Load(_ context.Context) *models.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.files.Read(s.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("catalog: no file yet, serving default", slog.String("file", s.name))
		} else {
			s.logger.Error("catalog: read failed, serving default", slog.String("file", s.name), slog.String("error", err.Error()))
		}
		return Default(s.now())
	}

	var c models.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Error("catalog: parse failed, serving default", slog.String("file", s.name), slog.String("error", err.Error()))
		return Default(s.now())
	}
	if err := Validate(&c); err != nil {
		s.logger.Error("catalog: invalid document on disk, serving default", slog.String("file", s.name), slog.String("error", err.Error()))
		return Default(s.now())
	}
	return &c
}

// Save normalises and validates doc, then replaces the file with it.
// It returns the document as persisted.
func (s *Store) Save(_ context.Context, doc *models.Catalog) (*models.Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", apperr.ErrValidation)
	}
	n := Normalize(doc)
	if err := Validate(n); err != nil {
		return nil, err
	}
	data, err := Encode(n)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.files.Write(s.name, data); err != nil {
		return nil, fmt.Errorf("catalog: save: %w", err)
	}
	return n, nil
}

// Raw returns the persisted bytes as they are on disk.
func (s *Store) Raw(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.files.Read(s.name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	return data, err
}
