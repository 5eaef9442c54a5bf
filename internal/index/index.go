package index

import "github.com/starford/canti/internal/models"

// SongIndex defines the song page indexing operations.
type SongIndex interface {
	UpsertSong(s SongRow, body string) error
	DeleteSong(name string) error
	GetSong(name string) (*SongRow, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
}

// RevisionLog defines the catalog history operations.
type RevisionLog interface {
	RecordRevision(rev models.Revision) error
	Revisions(limit int) ([]models.Revision, error)
}

var (
	_ SongIndex   = (*DB)(nil)
	_ RevisionLog = (*DB)(nil)
)
