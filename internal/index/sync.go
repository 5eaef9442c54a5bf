package index

import (
	"log/slog"
	"strings"

	"github.com/starford/canti/internal/checksum"
	"github.com/starford/canti/internal/parser"
	"github.com/starford/canti/internal/storage"
)

// Songs describes the directory of song pages to index.
type Songs struct {
	Files storage.Provider
	Ext   string
	// Name derives a display title from a filename when the page has none.
	Name func(filename string) string
}

func (s Songs) matches(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(s.Ext)) &&
		!strings.HasPrefix(name, ".")
}

// Sync scans the songs directory and brings the index up to date:
//   - new/changed pages are parsed and upserted
//   - pages removed from disk are deleted from the index
func Sync(db *DB, songs Songs, logger *slog.Logger) error {
	metas, err := songs.Files.List("", songs.Ext)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := songs.Files.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("name", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, songs, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("name", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("name", m.Path))
		}
	}

	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteSong(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("name", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("name", name))
			}
		}
	}

	logger.Info("sync: done", slog.Int("songs", len(metas)))
	return nil
}

// indexFile parses a song page and upserts it into the DB.
func indexFile(db *DB, songs Songs, name string, data []byte) error {
	page, err := parser.ParseSong(data)
	if err != nil {
		return err
	}
	title := page.Title
	if title == "" && songs.Name != nil {
		title = songs.Name(name)
	}
	row := SongRow{
		Name:     name,
		Title:    title,
		Checksum: checksum.Sum(data),
	}
	return db.UpsertSong(row, page.Body)
}
