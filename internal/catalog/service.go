package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/canti/internal/checksum"
	"github.com/starford/canti/internal/models"
)

const publishTimeout = 30 * time.Second

// Recorder keeps the audit trail of saved documents.
type Recorder interface {
	RecordRevision(rev models.Revision) error
	Revisions(limit int) ([]models.Revision, error)
}

// Publisher pushes the persisted document somewhere else.
type Publisher interface {
	Publish(ctx context.Context, content []byte) error
}

// SaveCallback is called after every successful save.
type SaveCallback func(c *models.Catalog)

// Service coordinates the store with history, publishing, and notifications.
//
// Updates are serialised end to end, so the revision log, the published
// copy and the notifications see saves in the same order as the file.
type Service struct {
	mu sync.Mutex

	store     *Store
	history   Recorder
	publisher Publisher
	onSave    SaveCallback
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHistory records every save in r.
func WithHistory(r Recorder) ServiceOption {
	return func(s *Service) { s.history = r }
}

// WithPublisher publishes every save through p.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithSaveCallback registers fn to run after every save.
func WithSaveCallback(fn SaveCallback) ServiceOption {
	return func(s *Service) { s.onSave = fn }
}

// NewService creates a catalog service around store.
func NewService(store *Store, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current document.
func (s *Service) Get(ctx context.Context) *models.Catalog {
	return s.store.Load(ctx)
}

// Update replaces the document. savedBy is recorded for attribution only.
// History and publishing failures are logged and do not fail the update.
func (s *Service) Update(ctx context.Context, doc *models.Catalog, savedBy string) (*models.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.store.Save(ctx, doc)
	if err != nil {
		return nil, err
	}

	data, err := Encode(saved)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		rev := models.Revision{
			ID:       uuid.NewString(),
			WeekDate: saved.WeekDate,
			Songs:    saved.Songs,
			Checksum: checksum.Sum(data),
			SavedBy:  savedBy,
			SavedAt:  s.now().UTC(),
		}
		if err := s.history.RecordRevision(rev); err != nil {
			s.logger.Warn("catalog: record revision failed", slog.String("error", err.Error()))
		}
	}

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		if err := s.publisher.Publish(pubCtx, data); err != nil {
			s.logger.Warn("catalog: publish failed", slog.String("error", err.Error()))
		}
		cancel()
	}

	if s.onSave != nil {
		s.onSave(saved)
	}

	s.logger.Info("catalog updated",
		slog.String("domenica", saved.WeekDate),
		slog.Int("songs", len(saved.Songs)),
		slog.String("saved_by", savedBy))
	return saved, nil
}

// History returns up to limit recent revisions, newest first.
func (s *Service) History(_ context.Context, limit int) ([]models.Revision, error) {
	if s.history == nil {
		return []models.Revision{}, nil
	}
	revs, err := s.history.Revisions(limit)
	if err != nil {
		return nil, err
	}
	if revs == nil {
		revs = []models.Revision{}
	}
	return revs, nil
}

// Publish pushes the document currently on disk through publisher p.
func (s *Service) Publish(ctx context.Context, p Publisher) error {
	data, err := s.store.Raw(ctx)
	if err != nil {
		return err
	}
	return p.Publish(ctx, data)
}
