// Package songs exposes the per-song pages as display names and writes
// new lyrics sheets.
package songs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/canti/internal/apperr"
	"github.com/starford/canti/internal/models"
	"github.com/starford/canti/internal/storage"
)

// Lister derives display names from the song pages in one directory.
type Lister struct {
	files     storage.Provider
	ext       string
	separator string
	titleCase bool
}

// ListerOption configures a Lister.
type ListerOption func(*Lister)

// WithSeparator sets the filename character replaced by spaces.
func WithSeparator(sep string) ListerOption {
	return func(l *Lister) { l.separator = sep }
}

// WithTitleCase enables Italian title-casing of display names.
func WithTitleCase(on bool) ListerOption {
	return func(l *Lister) { l.titleCase = on }
}

// NewLister creates a lister for files ending in ext.
func NewLister(files storage.Provider, ext string, opts ...ListerOption) *Lister {
	l := &Lister{files: files, ext: ext, separator: "-"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Extension returns the recognised file suffix.
func (l *Lister) Extension() string {
	return l.ext
}

// List returns the display names of all song pages, sorted.
// A missing directory yields apperr.ErrNotFound.
func (l *Lister) List(ctx context.Context) ([]string, error) {
	files, err := l.Files(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Title)
	}
	sort.Strings(out)
	return out, nil
}

// Files returns every song page with its display name as title.
func (l *Lister) Files(_ context.Context) ([]models.SongFile, error) {
	metas, err := l.files.List("", l.ext)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("songs directory %s: %w", l.files.Root(), apperr.ErrNotFound)
		}
		return nil, err
	}
	out := make([]models.SongFile, 0, len(metas))
	for _, m := range metas {
		out = append(out, models.SongFile{
			Name:      m.Path,
			Title:     l.DisplayName(m.Path),
			Checksum:  m.Checksum,
			UpdatedAt: m.UpdatedAt,
		})
	}
	return out, nil
}

// DisplayName turns "canto-di-natale.html" into "Canto Di Natale"
// (or "canto di natale" without title-casing).
func (l *Lister) DisplayName(filename string) string {
	name := path.Base(filename)
	if strings.EqualFold(path.Ext(name), l.ext) {
		name = name[:len(name)-len(l.ext)]
	}
	if l.separator != "" {
		name = strings.ReplaceAll(name, l.separator, " ")
	}
	name = strings.Join(strings.Fields(name), " ")
	if l.titleCase {
		name = cases.Title(language.Italian).String(name)
	}
	return name
}
